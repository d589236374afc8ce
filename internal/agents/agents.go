// Package agents holds the three handler implementations behind the
// execution adapter. Each one delegates its actual work (LLM selection,
// data download, rendering) to an external tool backend; the handlers
// themselves only shape requests and responses.
package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/triadflow/triad/internal/mcpclient"
	"github.com/triadflow/triad/internal/stagequery"
)

// ToolDocument is the {status, source, data} document the tool backends
// return. Data is itself a JSON-encoded string; downstream consumers
// unwrap it best-effort.
type ToolDocument struct {
	Status string `json:"status"`
	Source string `json:"source"`
	Data   string `json:"data"`
}

// MLHandler selects the logical query methods for a question.
type MLHandler struct {
	mcp *mcpclient.Client
}

// NewMLHandler creates the model-trainer handler.
func NewMLHandler(mcp *mcpclient.Client) *MLHandler {
	return &MLHandler{mcp: mcp}
}

// Invoke forwards the question to the method-selection tool and passes the
// backend document through.
func (h *MLHandler) Invoke(ctx context.Context, query, contextID string) (any, error) {
	raw, err := h.mcp.Call(ctx, "select_methods", map[string]any{
		"question":   query,
		"context_id": contextID,
	})
	if err != nil {
		return nil, fmt.Errorf("method selection failed: %w", err)
	}

	var doc ToolDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unexpected method selection response: %w", err)
	}
	return doc, nil
}

// DataHandler fetches the resources named by a stage query.
type DataHandler struct {
	mcp *mcpclient.Client
}

// NewDataHandler creates the dataset-loader handler.
func NewDataHandler(mcp *mcpclient.Client) *DataHandler {
	return &DataHandler{mcp: mcp}
}

// Invoke parses the STMESSAGE query once, fetches each named resource and
// returns the aggregate document.
func (h *DataHandler) Invoke(ctx context.Context, query, contextID string) (any, error) {
	q := stagequery.Parse(query)

	resources := make(map[string]json.RawMessage, len(q.Methods))
	for _, method := range q.Methods {
		raw, err := h.mcp.Call(ctx, "fetch_resource", map[string]any{
			"method":     method,
			"context_id": contextID,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching resource %s failed: %w", method, err)
		}
		resources[method] = raw
	}

	inner, err := json.Marshal(resources)
	if err != nil {
		return nil, fmt.Errorf("failed to encode resources: %w", err)
	}
	return ToolDocument{
		Status: "ok",
		Source: "data_mcp",
		Data:   string(inner),
	}, nil
}

// DVHandler renders HTML for a visualization prompt.
type DVHandler struct {
	mcp *mcpclient.Client
}

// NewDVHandler creates the visualization-composer handler.
func NewDVHandler(mcp *mcpclient.Client) *DVHandler {
	return &DVHandler{mcp: mcp}
}

// Invoke forwards the prompt to the rendering tool and returns the raw
// HTML string.
func (h *DVHandler) Invoke(ctx context.Context, query, contextID string) (any, error) {
	raw, err := h.mcp.Call(ctx, "render_html", map[string]any{
		"prompt":     query,
		"context_id": contextID,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering failed: %w", err)
	}

	var rendered struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(raw, &rendered); err == nil && rendered.HTML != "" {
		return rendered.HTML, nil
	}
	// Backend answered with a bare string.
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	return string(raw), nil
}
