// internal/core/errors_test.go
package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}

	withCause := WrapError(ErrTransport, errors.New("connection refused"))
	if withCause.Error() != "[TRANSPORT_FAILED] backend unreachable: connection refused" {
		t.Errorf("unexpected error string: %s", withCause.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrNoData, ErrNoData) {
		t.Error("same error should match")
	}
	if errors.Is(ErrTransport, ErrBackend) {
		t.Error("different codes should not match")
	}
}

func TestError_IsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("fetching bars: %w", WrapError(ErrBackend, errors.New("unsupported timeframe")))
	if !errors.Is(err, ErrBackend) {
		t.Error("expected ErrBackend to match through fmt wrapping")
	}
	if errors.Is(err, ErrTransport) {
		t.Error("ErrTransport must not match a backend error")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrTransport, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrTransport.Code {
		t.Error("code not preserved")
	}
}
