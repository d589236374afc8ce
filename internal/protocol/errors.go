package protocol

import "fmt"

// JSON-RPC error codes used on the wire.
const (
	CodeInvalidParams = -32602
	CodeInternalError = -32603
)

// RPCError is the error side of a response envelope. The wire carries only
// generic codes; failure detail stays in server-side logs.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewInternalError returns the uniform internal error surfaced to callers.
func NewInternalError() *RPCError {
	return &RPCError{Code: CodeInternalError, Message: "Internal error"}
}

// NewInvalidParamsError returns the invalid-params error.
func NewInvalidParamsError() *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: "Invalid parameters"}
}
