package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/triadflow/triad/internal/config"
	"github.com/triadflow/triad/internal/domain"
	"github.com/triadflow/triad/internal/protocol"
	"github.com/triadflow/triad/internal/repository"
)

// callLog records the order in which fake agents are hit.
type callLog struct {
	mu    sync.Mutex
	calls []string
	texts map[string]string
}

func newCallLog() *callLog {
	return &callLog{texts: make(map[string]string)}
}

func (l *callLog) record(role, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, role)
	l.texts[role] = text
}

func (l *callLog) order() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) text(role string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.texts[role]
}

// fakeAgent serves a card and a scripted send-message response.
func fakeAgent(t *testing.T, name string, respond func(text string) *protocol.SendMessageResponse) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == protocol.WellKnownCardPath:
			json.NewEncoder(w).Encode(protocol.AgentCard{
				Name:    name,
				URL:     server.URL + "/",
				Version: "1.0.0",
			})
		case r.Method == http.MethodPost && r.URL.Path == "/":
			var req protocol.SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad request body: %v", err)
				return
			}
			text, _ := req.Params.Message.FirstText()
			resp := respond(text)
			resp.ID = req.ID
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func completedResponse(text string) *protocol.SendMessageResponse {
	return &protocol.SendMessageResponse{
		JSONRPC: protocol.JSONRPCVersion,
		Result: &protocol.TaskResult{
			ID:        "t1",
			ContextID: "c1",
			State:     protocol.TaskStateCompleted,
			Parts:     []protocol.Part{protocol.TextPart(text)},
		},
	}
}

func newTestService(t *testing.T, mlURL, dataURL, dvURL string) *Service {
	t.Helper()
	store, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		MLAgentURL:      mlURL,
		DataAgentURL:    dataURL,
		DVAgentURL:      dvURL,
		PipelineTimeout: 5 * time.Second,
		ClientTimeout:   5 * time.Second,
	}

	svc := New(cfg, store, nil, nil)
	if err := svc.ResolveAgents(context.Background()); err != nil {
		t.Fatalf("ResolveAgents failed: %v", err)
	}
	return svc
}

func TestRunPipelineHappyPath(t *testing.T) {
	trace := newCallLog()

	ml := fakeAgent(t, "ml", func(text string) *protocol.SendMessageResponse {
		trace.record("ml", text)
		return completedResponse(`{"status":"ok","source":"ml_mcp","data":"{\"method\":\"ug_curriculum,academic_programs\"}"}`)
	})
	data := fakeAgent(t, "data", func(text string) *protocol.SendMessageResponse {
		trace.record("data", text)
		return completedResponse(`{"status":"ok","source":"data_mcp","data":"{}"}`)
	})
	dv := fakeAgent(t, "dv", func(text string) *protocol.SendMessageResponse {
		trace.record("dv", text)
		return completedResponse(`<div><script>alert(1)</script><iframe src="/static/ug_curriculum.html"></iframe></div>`)
	})

	svc := newTestService(t, ml.URL, data.URL, dv.URL)

	state, err := svc.Ask(context.Background(), "What is the academic calendar?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	order := trace.order()
	if len(order) != 3 || order[0] != "ml" || order[1] != "data" || order[2] != "dv" {
		t.Fatalf("stage order violated: %v", order)
	}

	if trace.text("ml") != "What is the academic calendar?" {
		t.Fatalf("ml agent must receive the question verbatim, got %q", trace.text("ml"))
	}
	if trace.text("data") != "STMESSAGE=ug_curriculum,academic_programs;" {
		t.Fatalf("unexpected data query: %q", trace.text("data"))
	}
	if !strings.Contains(trace.text("dv"), "ML Output:") {
		t.Fatalf("dv prompt missing ml result: %q", trace.text("dv"))
	}

	if state.MLResult == nil || state.DataResults == nil || state.DVResult == nil {
		t.Fatalf("missing stage results: %+v", state)
	}
	if state.DVHTML == "" {
		t.Fatalf("expected extracted html")
	}
	if strings.Contains(state.DVHTML, "<script") {
		t.Fatalf("script survived into dv_html: %s", state.DVHTML)
	}
	if !strings.Contains(state.DVHTML, "/static/ug_curriculum.html") {
		t.Fatalf("iframe reference lost: %s", state.DVHTML)
	}
}

func TestRunPipelineDegradedMethod(t *testing.T) {
	trace := newCallLog()

	ml := fakeAgent(t, "ml", func(text string) *protocol.SendMessageResponse {
		trace.record("ml", text)
		return completedResponse("oops")
	})
	data := fakeAgent(t, "data", func(text string) *protocol.SendMessageResponse {
		trace.record("data", text)
		return completedResponse(`{"status":"ok","source":"data_mcp","data":"{}"}`)
	})
	dv := fakeAgent(t, "dv", func(text string) *protocol.SendMessageResponse {
		trace.record("dv", text)
		return completedResponse("<p>nothing to show</p>")
	})

	svc := newTestService(t, ml.URL, data.URL, dv.URL)

	if _, err := svc.Ask(context.Background(), "anything"); err != nil {
		t.Fatalf("malformed ml output must not abort the pipeline: %v", err)
	}

	// The data agent is still called, with the degraded query.
	if trace.text("data") != "STMESSAGE=None;" {
		t.Fatalf("expected degraded query, got %q", trace.text("data"))
	}
}

func TestRunPipelineStageFailureAborts(t *testing.T) {
	trace := newCallLog()

	ml := fakeAgent(t, "ml", func(text string) *protocol.SendMessageResponse {
		trace.record("ml", text)
		return &protocol.SendMessageResponse{
			JSONRPC: protocol.JSONRPCVersion,
			Error:   protocol.NewInternalError(),
		}
	})
	data := fakeAgent(t, "data", func(text string) *protocol.SendMessageResponse {
		trace.record("data", text)
		return completedResponse("{}")
	})
	dv := fakeAgent(t, "dv", func(text string) *protocol.SendMessageResponse {
		trace.record("dv", text)
		return completedResponse("<p/>")
	})

	svc := newTestService(t, ml.URL, data.URL, dv.URL)

	if _, err := svc.Ask(context.Background(), "q"); err == nil {
		t.Fatalf("expected pipeline failure")
	}

	order := trace.order()
	if len(order) != 1 || order[0] != "ml" {
		t.Fatalf("downstream stages must not run after a failure: %v", order)
	}
}

func TestAskTimeout(t *testing.T) {
	ml := fakeAgent(t, "ml", func(text string) *protocol.SendMessageResponse {
		time.Sleep(500 * time.Millisecond)
		return completedResponse("{}")
	})
	data := fakeAgent(t, "data", func(text string) *protocol.SendMessageResponse {
		return completedResponse("{}")
	})
	dv := fakeAgent(t, "dv", func(text string) *protocol.SendMessageResponse {
		return completedResponse("<p/>")
	})

	svc := newTestService(t, ml.URL, data.URL, dv.URL)
	svc.cfg.PipelineTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := svc.Ask(context.Background(), "q")
	if err != ErrPipelineTimeout {
		t.Fatalf("expected ErrPipelineTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Fatalf("caller was held past the deadline: %s", elapsed)
	}
}

func TestResolveAgentsFailureIsFatal(t *testing.T) {
	data := fakeAgent(t, "data", func(text string) *protocol.SendMessageResponse {
		return completedResponse("{}")
	})
	dv := fakeAgent(t, "dv", func(text string) *protocol.SendMessageResponse {
		return completedResponse("<p/>")
	})

	store, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	cfg := &config.Config{
		MLAgentURL:      "http://127.0.0.1:1", // nothing listens here
		DataAgentURL:    data.URL,
		DVAgentURL:      dv.URL,
		PipelineTimeout: time.Second,
		ClientTimeout:   time.Second,
	}

	svc := New(cfg, store, nil, nil)
	if err := svc.ResolveAgents(context.Background()); err == nil {
		t.Fatalf("expected resolution failure to be surfaced")
	}
}

func TestRunRecordedInStore(t *testing.T) {
	ml := fakeAgent(t, "ml", func(text string) *protocol.SendMessageResponse {
		return completedResponse(`{"data":"{\"method\":\"academic_calendar\"}"}`)
	})
	data := fakeAgent(t, "data", func(text string) *protocol.SendMessageResponse {
		return completedResponse("{}")
	})
	dv := fakeAgent(t, "dv", func(text string) *protocol.SendMessageResponse {
		return completedResponse("<p>ok</p>")
	})

	svc := newTestService(t, ml.URL, data.URL, dv.URL)

	if _, err := svc.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	// One run, terminal DONE, with the full event trail.
	runs, err := svc.store.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != domain.RunStatusDone {
		t.Fatalf("expected DONE, got %s", run.Status)
	}

	events, err := svc.store.GetEvents(context.Background(), run.RunID, 0, 0)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	var types []domain.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	if len(types) == 0 || types[0] != domain.EventTypeRunStarted || types[len(types)-1] != domain.EventTypeRunDone {
		t.Fatalf("unexpected event trail: %v", types)
	}
}
