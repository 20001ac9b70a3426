package llm

import (
	"context"
	"errors"
	"fmt"
)

// BackendError wraps failures of the model backend. Retryable marks
// transient conditions (connection resets, 429, 5xx) that a configured
// retry policy may replay.
type BackendError struct {
	Provider   string
	StatusCode int
	Message    string
	Retryable  bool
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// StatusError builds a BackendError from an HTTP status. 429 and 5xx are retryable.
func StatusError(provider string, status int, body string) *BackendError {
	return &BackendError{
		Provider:   provider,
		StatusCode: status,
		Message:    body,
		Retryable:  status == 429 || status >= 500,
	}
}

// TransportError wraps connection-level failures. Cancellation is never
// retryable; timeouts and other network errors are replayed only when a
// retry budget is configured.
func TransportError(provider string, err error) *BackendError {
	retryable := !errors.Is(err, context.Canceled)
	return &BackendError{
		Provider:  provider,
		Message:   "request failed",
		Retryable: retryable,
		Err:       err,
	}
}

// IsRetryable reports whether err is a transient backend failure.
func IsRetryable(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Retryable
}
