package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/triadflow/triad/internal/agentclient"
	"github.com/triadflow/triad/internal/domain"
	"github.com/triadflow/triad/internal/protocol"
	"github.com/triadflow/triad/internal/stagequery"
)

// ErrPipelineTimeout is returned when a run exceeds the configured
// pipeline deadline. In-flight remote calls are not cancelled; only the
// waiting caller gives up.
var ErrPipelineTimeout = errors.New("pipeline timeout")

// Ask runs the pipeline for one question, bounded by the configured
// wall-clock deadline.
func (s *Service) Ask(ctx context.Context, question string) (*domain.PipelineState, error) {
	run := &domain.Run{
		RunID:     "run_" + uuid.New().String()[:8],
		Question:  question,
		Status:    domain.RunStatusCreated,
		StartedAt: time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	type pipelineResult struct {
		state *domain.PipelineState
		err   error
	}
	done := make(chan pipelineResult, 1)
	go func() {
		// Deliberately detached from the caller's context: exceeding the
		// deadline abandons the waiting caller, not the in-flight calls.
		state, err := s.runPipeline(context.Background(), run)
		done <- pipelineResult{state: state, err: err}
	}()

	timer := time.NewTimer(s.cfg.PipelineTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.state, res.err
	case <-timer.C:
		log.Printf("ERROR: run %s exceeded pipeline deadline (%s)", run.RunID, s.cfg.PipelineTimeout)
		s.recordEvent(ctx, run.RunID, domain.EventTypeRunTimeout, map[string]any{
			"timeout_ms": s.cfg.PipelineTimeout.Milliseconds(),
		})
		errData, _ := json.Marshal(map[string]string{"code": "pipeline_timeout"})
		if err := s.store.UpdateRunCompleted(ctx, run.RunID, domain.RunStatusTimeout, errData); err != nil {
			log.Printf("ERROR: failed to update run status: %v", err)
		}
		return nil, ErrPipelineTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// stage is one step of the fixed chain. Each stage returns a partial state
// merged into the running accumulator.
type stage struct {
	name string
	run  func(ctx context.Context, state *domain.PipelineState) (*domain.PipelineState, error)
}

// runPipeline executes the fixed ml -> data -> dv chain strictly in order:
// no branching, no retry edges, no parallel fan-out.
func (s *Service) runPipeline(ctx context.Context, run *domain.Run) (*domain.PipelineState, error) {
	s.recordEvent(ctx, run.RunID, domain.EventTypeRunStarted, map[string]any{
		"question": run.Question,
	})
	if err := s.store.UpdateRunStatus(ctx, run.RunID, domain.RunStatusRunning); err != nil {
		log.Printf("ERROR: failed to update run status: %v", err)
	}

	state := &domain.PipelineState{
		Messages: []domain.InputMessage{{Role: "user", Content: run.Question}},
	}

	stages := []stage{
		{name: "ml_stage", run: s.mlStage},
		{name: "data_stage", run: s.dataStage},
		{name: "dv_stage", run: s.dvStage},
	}

	for _, st := range stages {
		s.recordEvent(ctx, run.RunID, domain.EventTypeStageStarted, map[string]any{
			"stage": st.name,
		})

		partial, err := st.run(ctx, state)
		if err != nil {
			log.Printf("ERROR: %s failed for run %s: %v", st.name, run.RunID, err)
			s.recordEvent(ctx, run.RunID, domain.EventTypeRunFailed, map[string]any{
				"stage":   st.name,
				"message": err.Error(),
			})
			errData, _ := json.Marshal(map[string]string{"stage": st.name, "message": err.Error()})
			s.completeRun(ctx, run.RunID, domain.RunStatusFailed, errData)
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		mergeState(state, partial)

		s.recordEvent(ctx, run.RunID, domain.EventTypeStageDone, map[string]any{
			"stage": st.name,
		})
	}

	s.recordEvent(ctx, run.RunID, domain.EventTypeRunDone, map[string]any{
		"dv_html_bytes": len(state.DVHTML),
	})
	s.completeRun(ctx, run.RunID, domain.RunStatusDone, nil)

	return state, nil
}

// mlStage sends the seed question verbatim to the ml agent.
func (s *Service) mlStage(ctx context.Context, state *domain.PipelineState) (*domain.PipelineState, error) {
	query := ""
	if len(state.Messages) > 0 {
		query = state.Messages[0].Content
	}

	log.Printf("Calling ml agent...")
	resp, err := s.send(ctx, RoleML, query)
	if err != nil {
		return nil, err
	}
	return &domain.PipelineState{MLResult: resp}, nil
}

// dataStage unwraps the method list nested in the ml result and forwards
// it to the data agent. Unwrap failures degrade to an empty query; the
// remote call is still issued with the degraded input.
func (s *Service) dataStage(ctx context.Context, state *domain.PipelineState) (*domain.PipelineState, error) {
	method, ok := UnwrapMethod(state.MLResult)
	if !ok {
		log.Printf("WARN: could not extract method from ml result, degrading query")
	}
	query := stagequery.FromMethodList(method).Encode()
	log.Printf("Extracted method: %q, data query: %s", method, query)

	log.Printf("Calling data agent...")
	resp, err := s.send(ctx, RoleData, query)
	if err != nil {
		return nil, err
	}
	return &domain.PipelineState{DataResults: resp}, nil
}

// dvStage asks the dv agent for HTML built from the full ml result.
func (s *Service) dvStage(ctx context.Context, state *domain.PipelineState) (*domain.PipelineState, error) {
	prompt := BuildDVPrompt(state.MLResult)

	log.Printf("Calling dv agent...")
	resp, err := s.send(ctx, RoleDV, prompt)
	if err != nil {
		return nil, err
	}

	html := ""
	if resp.Result != nil {
		if text, ok := resp.Result.FirstText(); ok {
			html = SanitizeHTML(text)
		}
	}
	if html == "" {
		// Non-fatal: the full envelope is still returned to the caller.
		log.Printf("WARN: dv agent did not return extractable HTML")
	}

	return &domain.PipelineState{DVResult: resp, DVHTML: html}, nil
}

// send issues one protocol call to the agent bound to role. A structured
// error envelope aborts the run exactly like a transport failure.
func (s *Service) send(ctx context.Context, role, text string) (*protocol.SendMessageResponse, error) {
	client, ok := s.agents[role]
	if !ok {
		return nil, fmt.Errorf("no resolved client for role %s", role)
	}

	resp, err := client.SendMessage(ctx, agentclient.NewUserMessage(text))
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s agent returned error: %w", role, resp.Error)
	}
	return resp, nil
}

// mergeState merges a stage's partial state into the accumulator. Stages
// only ever write their own fields.
func mergeState(state, partial *domain.PipelineState) {
	if partial == nil {
		return
	}
	if partial.MLResult != nil {
		state.MLResult = partial.MLResult
	}
	if partial.DataResults != nil {
		state.DataResults = partial.DataResults
	}
	if partial.DVResult != nil {
		state.DVResult = partial.DVResult
	}
	if partial.DVHTML != "" {
		state.DVHTML = partial.DVHTML
	}
}

// completeRun marks a run terminal unless the deadline already did.
func (s *Service) completeRun(ctx context.Context, runID string, status domain.RunStatus, errData []byte) {
	current, err := s.store.GetRun(ctx, runID)
	if err == nil && current != nil && current.Status == domain.RunStatusTimeout {
		return
	}
	if err := s.store.UpdateRunCompleted(ctx, runID, status, errData); err != nil {
		log.Printf("ERROR: failed to update run status: %v", err)
	}
}

// recordEvent persists and broadcasts one stage event. Failures are logged
// and never block the run.
func (s *Service) recordEvent(ctx context.Context, runID string, eventType domain.EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: failed to marshal event payload: %v", err)
		data = nil
	}
	event := &domain.StageEvent{
		EventID: "evt_" + uuid.New().String()[:8],
		RunID:   runID,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: data,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		log.Printf("ERROR: failed to record %s event: %v", eventType, err)
	}
	if s.hub != nil {
		s.hub.Broadcast(runID, event)
	}
}
