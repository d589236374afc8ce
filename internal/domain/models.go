// Package domain defines the supervisor-side domain models.
package domain

import (
	"encoding/json"
	"time"

	"github.com/triadflow/triad/internal/protocol"
)

// RunStatus represents the status of a pipeline run.
type RunStatus string

const (
	RunStatusCreated RunStatus = "CREATED"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusDone    RunStatus = "DONE"
	RunStatusFailed  RunStatus = "FAILED"
	RunStatusTimeout RunStatus = "TIMEOUT"
)

// EventType represents the type of a stage event.
type EventType string

const (
	EventTypeRunStarted   EventType = "run_started"
	EventTypeStageStarted EventType = "stage_started"
	EventTypeStageDone    EventType = "stage_done"
	EventTypeRunDone      EventType = "run_done"
	EventTypeRunFailed    EventType = "run_failed"
	EventTypeRunTimeout   EventType = "run_timeout"
)

// Run represents one pipeline execution.
type Run struct {
	RunID     string          `json:"run_id"`
	Question  string          `json:"question"`
	Status    RunStatus       `json:"status"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
}

// StageEvent is a trace event recorded during a run.
type StageEvent struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InputMessage is a seed conversational input to the pipeline.
type InputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PipelineState is the accumulator threaded through the pipeline stages.
// Each field is written by exactly one stage and read-only downstream;
// MLResult is the only genuine cross-stage dependency. The state lives for
// one run and is not retained.
type PipelineState struct {
	Messages    []InputMessage                `json:"messages"`
	MLResult    *protocol.SendMessageResponse `json:"ml_result,omitempty"`
	DataResults *protocol.SendMessageResponse `json:"data_results,omitempty"`
	DVResult    *protocol.SendMessageResponse `json:"dv_result,omitempty"`
	DVHTML      string                        `json:"dv_html,omitempty"`
}
