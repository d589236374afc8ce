// Package protocol defines the wire-level message envelope and agent
// descriptor types exchanged between the supervisor and the worker agents.
package protocol

import "encoding/json"

// JSONRPCVersion is the JSON-RPC version carried on every envelope.
const JSONRPCVersion = "2.0"

// MethodSendMessage is the single RPC method exposed by an agent.
const MethodSendMessage = "message/send"

// PartKindText is the only part kind exercised by this core. Richer kinds
// (file, data) are an extension point, not implemented here.
const PartKindText = "text"

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Part is one content part of a message. Tagged union keyed by Kind.
type Part struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// Message is the request-side payload of an envelope.
type Message struct {
	Role      Role            `json:"role"`
	Parts     []Part          `json:"parts"`
	MessageID string          `json:"messageId"`
	ContextID string          `json:"contextId,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// FirstText returns the text of the first text part, if any.
func (m *Message) FirstText() (string, bool) {
	for _, p := range m.Parts {
		if p.Kind == PartKindText {
			return p.Text, true
		}
	}
	return "", false
}

// MessageSendParams wraps the message for the send-message RPC.
type MessageSendParams struct {
	Message  Message         `json:"message"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// SendMessageRequest is the request envelope. ID is caller-generated and
// unique per call.
type SendMessageRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	Params  MessageSendParams `json:"params"`
}

// TaskState is the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
)

// TaskResult is the task echo returned on success: identity plus the
// agent's answer parts.
type TaskResult struct {
	ID        string    `json:"id"`
	ContextID string    `json:"contextId"`
	Kind      string    `json:"kind,omitempty"`
	State     TaskState `json:"state"`
	Parts     []Part    `json:"parts"`
}

// FirstText returns the text of the first text part of the result, if any.
func (t *TaskResult) FirstText() (string, bool) {
	for _, p := range t.Parts {
		if p.Kind == PartKindText {
			return p.Text, true
		}
	}
	return "", false
}

// SendMessageResponse is the response envelope. Exactly one of Result and
// Error is set.
type SendMessageResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Result  *TaskResult `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}
