package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks caller input that was rejected before any provider call.
var ErrInvalidInput = errors.New("invalid input")

// ConnectionError reports a transport or handshake failure against a provider.
// The session that produced it has already been torn down, so the caller may retry.
type ConnectionError struct {
	Provider string
	Endpoint string
	Op       string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Provider, e.Op, e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Retryable is always true: the next call starts from a fresh connection.
func (e *ConnectionError) Retryable() bool {
	return true
}

// NoContentError reports a tool result that carried zero content frames.
type NoContentError struct {
	Provider string
	Tool     string
}

func (e *NoContentError) Error() string {
	return fmt.Sprintf("%s %s: no content received", e.Provider, e.Tool)
}

// UnparseableResponseError reports a tool result whose text content was empty.
type UnparseableResponseError struct {
	Provider string
	Tool     string
}

func (e *UnparseableResponseError) Error() string {
	return fmt.Sprintf("%s %s: empty text content", e.Provider, e.Tool)
}

// ToolError reports a result the provider flagged with isError.
type ToolError struct {
	Provider string
	Tool     string
	Message  string
}

func (e *ToolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: tool reported an error", e.Provider, e.Tool)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Tool, e.Message)
}

// IsRetryable reports whether err is a transport failure the caller may retry.
func IsRetryable(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr) && connErr.Retryable()
}
