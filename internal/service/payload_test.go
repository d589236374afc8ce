package service

import (
	"strings"
	"testing"

	"github.com/triadflow/triad/internal/protocol"
)

func textEnvelope(text string) *protocol.SendMessageResponse {
	return &protocol.SendMessageResponse{
		JSONRPC: protocol.JSONRPCVersion,
		Result: &protocol.TaskResult{
			ID:    "t1",
			State: protocol.TaskStateCompleted,
			Parts: []protocol.Part{protocol.TextPart(text)},
		},
	}
}

func TestUnwrapMethod(t *testing.T) {
	nested := `{"data":"{\"method\":\"ug_curriculum,academic_programs\"}"}`

	method, ok := UnwrapMethod(textEnvelope(nested))
	if !ok {
		t.Fatalf("expected method to unwrap")
	}
	if method != "ug_curriculum,academic_programs" {
		t.Fatalf("unexpected method: %s", method)
	}
}

func TestUnwrapMethodDegradesNeverRaises(t *testing.T) {
	tests := []struct {
		name     string
		envelope *protocol.SendMessageResponse
	}{
		{"nil envelope", nil},
		{"error envelope", &protocol.SendMessageResponse{Error: protocol.NewInternalError()}},
		{"no text part", &protocol.SendMessageResponse{Result: &protocol.TaskResult{}}},
		{"outer not json", textEnvelope("oops")},
		{"data field absent", textEnvelope(`{"status":"ok"}`)},
		{"inner not json", textEnvelope(`{"data":"not json"}`)},
		{"method absent", textEnvelope(`{"data":"{}"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if method, ok := UnwrapMethod(tt.envelope); ok || method != "" {
				t.Fatalf("expected absent method, got %q", method)
			}
		})
	}
}

func TestUnwrapMethodIsPure(t *testing.T) {
	envelope := textEnvelope(`{"data":"{\"method\":\"academic_calendar\"}"}`)
	first, _ := UnwrapMethod(envelope)
	second, _ := UnwrapMethod(envelope)
	if first != second {
		t.Fatalf("repeated calls disagree: %q vs %q", first, second)
	}
}

func TestSanitizeHTMLStripsScripts(t *testing.T) {
	raw := `<div><script>alert(1)</script><iframe src="/static/academic_calendar.html"></iframe></div>`
	clean := SanitizeHTML(raw)

	if strings.Contains(clean, "<script") {
		t.Fatalf("script survived sanitization: %s", clean)
	}
	if !strings.Contains(clean, "<iframe") {
		t.Fatalf("iframe should survive sanitization: %s", clean)
	}
	if !strings.Contains(clean, "/static/academic_calendar.html") {
		t.Fatalf("iframe src lost: %s", clean)
	}
}

func TestSanitizeHTMLKeepsEmbeds(t *testing.T) {
	raw := `<embed src="/static/report.pdf" type="application/pdf"><a href="javascript:alert(1)">x</a>`
	clean := SanitizeHTML(raw)

	if !strings.Contains(clean, "<embed") {
		t.Fatalf("embed should survive sanitization: %s", clean)
	}
	if strings.Contains(clean, "javascript:") {
		t.Fatalf("javascript href survived: %s", clean)
	}
}

func TestBuildDVPromptEmbedsMLResult(t *testing.T) {
	envelope := textEnvelope("ml says hi")
	prompt := BuildDVPrompt(envelope)

	if !strings.Contains(prompt, "pure HTML only") {
		t.Fatalf("prompt missing instruction: %s", prompt)
	}
	if !strings.Contains(prompt, "ml says hi") {
		t.Fatalf("prompt missing serialized ml result: %s", prompt)
	}
}
