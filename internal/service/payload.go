package service

import (
	"encoding/json"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/triadflow/triad/internal/protocol"
)

// The ml agent's answer is a text part whose string value is a JSON
// document whose "data" field is a second JSON-encoded string. Both levels
// decode best-effort: any failure degrades to an absent value instead of
// aborting the pipeline. Downstream stages depend on exactly this
// two-level behavior, so it must not be collapsed to a single parse.
type outerPayload struct {
	Status string `json:"status"`
	Source string `json:"source"`
	Data   string `json:"data"`
}

type innerPayload struct {
	Method string `json:"method"`
}

// UnwrapMethod recovers the comma-separated method list nested inside a
// response envelope. It is pure: repeated calls yield the same result, and
// malformed input at any step returns ok=false, never an error.
func UnwrapMethod(envelope *protocol.SendMessageResponse) (string, bool) {
	if envelope == nil || envelope.Result == nil {
		return "", false
	}
	raw, ok := envelope.Result.FirstText()
	if !ok {
		return "", false
	}

	var outer outerPayload
	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		return "", false
	}
	if outer.Data == "" {
		return "", false
	}

	var inner innerPayload
	if err := json.Unmarshal([]byte(outer.Data), &inner); err != nil {
		return "", false
	}
	if inner.Method == "" {
		return "", false
	}
	return inner.Method, true
}

// htmlPolicy keeps the rendered report useful (iframes and embeds pointing
// at static resources survive) while guaranteeing no active content
// reaches the caller.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("iframe", "embed", "figure", "figcaption")
	p.AllowAttrs("src", "width", "height", "title", "type").OnElements("iframe", "embed")
	p.AllowAttrs("style").OnElements("div", "span", "table", "td", "th")
	return p
}()

// SanitizeHTML strips active content from agent-produced HTML.
func SanitizeHTML(raw string) string {
	return htmlPolicy.Sanitize(raw)
}

// BuildDVPrompt builds the visualization instruction prompt around the
// JSON-serialized ml result.
func BuildDVPrompt(mlResult *protocol.SendMessageResponse) string {
	mlJSON, err := json.MarshalIndent(mlResult, "", "  ")
	if err != nil {
		mlJSON = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("You are the Data Visualization Agent.\n\n")
	b.WriteString("Your job:\n")
	b.WriteString("1. Read the processed ML output below.\n")
	b.WriteString("2. Generate visualizations OR combined HTML content.\n")
	b.WriteString("3. ALWAYS return pure HTML only. No markdown.\n\n")
	b.WriteString("ML Output:\n")
	b.Write(mlJSON)
	return b.String()
}
