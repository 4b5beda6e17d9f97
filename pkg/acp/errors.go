package acp

import (
	"errors"
	"fmt"
)

// JSON-RPC 2.0 error codes used on the wire. AuthRequired is an ACP
// extension code.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeAuthRequired   = -32000
)

var (
	// ErrConnectionClosed reports that the connection was torn down before
	// or while an operation was in flight. It is a local condition, distinct
	// from a *RequestError reported by the peer.
	ErrConnectionClosed = errors.New("acp: connection closed")
)

// RequestError is the structured error that crosses the wire in a JSON-RPC
// error response. Callers branch on Code; Data carries optional detail.
type RequestError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

// NewParseError reports that a frame could not be parsed.
func NewParseError(data any) *RequestError {
	return &RequestError{Code: CodeParseError, Message: "Parse error", Data: data}
}

// NewInvalidRequest reports a structurally invalid request object.
func NewInvalidRequest(data any) *RequestError {
	return &RequestError{Code: CodeInvalidRequest, Message: "Invalid request", Data: data}
}

// NewMethodNotFound reports that no handler is bound to the given method.
func NewMethodNotFound(method string) *RequestError {
	return &RequestError{Code: CodeMethodNotFound, Message: "Method not found", Data: map[string]any{"method": method}}
}

// NewInvalidParams reports that request params did not match the method's
// expected payload shape.
func NewInvalidParams(data any) *RequestError {
	return &RequestError{Code: CodeInvalidParams, Message: "Invalid params", Data: data}
}

// NewInternalError wraps an unexpected handler failure.
func NewInternalError(data any) *RequestError {
	return &RequestError{Code: CodeInternalError, Message: "Internal error", Data: data}
}

// NewAuthRequired reports that the agent requires authentication before the
// requested operation can proceed.
func NewAuthRequired(data any) *RequestError {
	return &RequestError{Code: CodeAuthRequired, Message: "Authentication required", Data: data}
}

// toRequestError coerces an arbitrary handler failure into the only error
// shape allowed on the wire. A *RequestError passes through unchanged;
// anything else becomes an internal error with best-effort diagnostics.
func toRequestError(err error) *RequestError {
	if err == nil {
		return nil
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	return NewInternalError(map[string]any{"error": err.Error()})
}
