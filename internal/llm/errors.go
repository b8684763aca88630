package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies backend failures for retry decisions.
type ErrorKind string

// Backend failure classes.
const (
	KindRateLimited     ErrorKind = "rate_limited"
	KindTimeout         ErrorKind = "timeout"
	KindMalformedOutput ErrorKind = "malformed_output"
	KindUnavailable     ErrorKind = "unavailable"
)

// BackendError wraps a generation backend failure with its retry class.
type BackendError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend error (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("backend error (%s): %s", e.Kind, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure class is worth retrying with backoff.
// Malformed output is handled by the composer's own regeneration budget, not
// the transport retry.
func (e *BackendError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTimeout || e.Kind == KindUnavailable
}

// classifyError maps a raw transport error onto a BackendError.
func classifyError(err error) *BackendError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &BackendError{Kind: KindTimeout, Message: "generation call timed out", Cause: err}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return &BackendError{Kind: KindRateLimited, Message: "backend rate limited the request", Cause: err}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return &BackendError{Kind: KindTimeout, Message: "generation call timed out", Cause: err}
	case strings.Contains(msg, "503") || strings.Contains(msg, "unavailable") || strings.Contains(msg, "500"):
		return &BackendError{Kind: KindUnavailable, Message: "backend unavailable", Cause: err}
	default:
		return &BackendError{Kind: KindMalformedOutput, Message: "backend call failed", Cause: err}
	}
}
