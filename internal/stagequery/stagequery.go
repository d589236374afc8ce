// Package stagequery handles the key=value; microformat carried in the
// text sent to the data agent. The wire format stays string-based for
// compatibility, but it is parsed exactly once into a typed Query and
// never re-probed ad hoc.
package stagequery

import "strings"

// EmptyMarker is rendered when no methods were recovered upstream. The
// data agent still receives a call with this degraded query rather than
// the pipeline short-circuiting.
const EmptyMarker = "None"

const methodsKey = "STMESSAGE"

// Query is a parsed data-stage request: the logical resource names the
// data agent should fetch.
type Query struct {
	Methods []string
}

// Parse decodes a "STMESSAGE=a,b;" string. Unknown keys are ignored; the
// empty marker and blank values decode to no methods.
func Parse(raw string) Query {
	var q Query
	for _, segment := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(segment), "=")
		if !ok || key != methodsKey {
			continue
		}
		if value == "" || value == EmptyMarker {
			continue
		}
		for _, m := range strings.Split(value, ",") {
			if m = strings.TrimSpace(m); m != "" {
				q.Methods = append(q.Methods, m)
			}
		}
	}
	return q
}

// Encode renders the query back to its wire form.
func (q Query) Encode() string {
	if len(q.Methods) == 0 {
		return methodsKey + "=" + EmptyMarker + ";"
	}
	return methodsKey + "=" + strings.Join(q.Methods, ",") + ";"
}

// FromMethodList builds a query from a comma-separated method string, as
// recovered from the ml agent's nested payload.
func FromMethodList(methods string) Query {
	var q Query
	for _, m := range strings.Split(methods, ",") {
		if m = strings.TrimSpace(m); m != "" && m != EmptyMarker {
			q.Methods = append(q.Methods, m)
		}
	}
	return q
}
