// Package executor adapts inbound message envelopes to a pluggable agent
// handler and turns the handler's result back into an outbound envelope.
package executor

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/triadflow/triad/internal/protocol"
	"github.com/triadflow/triad/internal/taskstore"
)

// Handler is the agent-specific work behind the adapter. It is the only
// part that differs between the running agents; the adapter treats it as
// opaque.
type Handler interface {
	Invoke(ctx context.Context, query, contextID string) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, query, contextID string) (any, error)

func (f HandlerFunc) Invoke(ctx context.Context, query, contextID string) (any, error) {
	return f(ctx, query, contextID)
}

// Executor is the server-side execution adapter.
type Executor struct {
	handler Handler
	tasks   *taskstore.Store
}

// New creates an executor around the given handler and task store.
func New(handler Handler, tasks *taskstore.Store) *Executor {
	return &Executor{
		handler: handler,
		tasks:   tasks,
	}
}

// Execute handles one inbound envelope. Handler failures are logged with
// full detail locally and surfaced to the caller only as a generic internal
// error; the wire never distinguishes bad input from a downstream failure.
func (e *Executor) Execute(ctx context.Context, req *protocol.SendMessageRequest) *protocol.SendMessageResponse {
	msg := req.Params.Message

	query, ok := msg.FirstText()
	if !ok {
		log.Printf("ERROR: request %s has no text part: %v", req.ID, protocol.NewInvalidParamsError())
		return errorResponse(req.ID)
	}

	contextID := msg.ContextID
	if contextID == "" {
		contextID = uuid.New().String()
	}
	task := e.tasks.GetOrCreateByContext(contextID)
	e.tasks.SetState(task.ID, protocol.TaskStateWorking)

	result, err := e.handler.Invoke(ctx, query, task.ContextID)
	if err != nil {
		log.Printf("ERROR: handler failed for task %s: %v", task.ID, err)
		e.tasks.SetState(task.ID, protocol.TaskStateFailed)
		return errorResponse(req.ID)
	}

	text, err := resultText(result)
	if err != nil {
		log.Printf("ERROR: failed to serialize handler result for task %s: %v", task.ID, err)
		e.tasks.SetState(task.ID, protocol.TaskStateFailed)
		return errorResponse(req.ID)
	}

	e.tasks.SetState(task.ID, protocol.TaskStateCompleted)

	return &protocol.SendMessageResponse{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      req.ID,
		Result: &protocol.TaskResult{
			ID:        task.ID,
			ContextID: task.ContextID,
			Kind:      "task",
			State:     protocol.TaskStateCompleted,
			Parts:     []protocol.Part{protocol.TextPart(text)},
		},
	}
}

// Cancel is a documented no-op: no in-flight work is interrupted.
func (e *Executor) Cancel(taskID string) error {
	log.Printf("INFO: cancel requested for task %s - no active cancellation logic", taskID)
	return nil
}

// resultText renders a handler result as the single text part of the
// outbound event. Strings pass through; anything else is JSON-encoded.
func resultText(result any) (string, error) {
	if s, ok := result.(string); ok {
		return s, nil
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func errorResponse(requestID string) *protocol.SendMessageResponse {
	return &protocol.SendMessageResponse{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      requestID,
		Error:   protocol.NewInternalError(),
	}
}
