// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Backend errors
	ErrTransport = &Error{Code: "TRANSPORT_FAILED", Message: "backend unreachable"}
	ErrBackend   = &Error{Code: "BACKEND_ERROR", Message: "backend reported an error"}
	ErrNoData    = &Error{Code: "NO_DATA", Message: "no data available"}

	// View errors
	ErrUnknownTimeframe = &Error{Code: "UNKNOWN_TIMEFRAME", Message: "unsupported timeframe"}
	ErrViewStopped      = &Error{Code: "VIEW_STOPPED", Message: "view already stopped"}
	ErrInvalidAmount    = &Error{Code: "INVALID_AMOUNT", Message: "amount must be positive"}
	ErrInvalidRequest   = &Error{Code: "INVALID_REQUEST", Message: "invalid request"}

	// API errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid api key"}
	ErrNotFound     = &Error{Code: "NOT_FOUND", Message: "resource not found"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
