package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ProviderError wraps a backend failure with enough context to decide on
// retry. Retryable errors (rate limiting, transient network failures, 5xx)
// are retried by Caller; terminal errors (auth, malformed request) surface
// immediately.
type ProviderError struct {
	Provider  string
	Status    int // HTTP status when applicable, 0 otherwise
	Retryable bool
	Err       error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "retryable"
	}
	if e.Status != 0 {
		return fmt.Sprintf("provider %s: %s error (HTTP %d): %v", e.Provider, kind, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s: %s error: %v", e.Provider, kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a ProviderError marked retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}

// classifyHTTPError converts an HTTP status into a ProviderError with the
// correct retryable classification. 429 and 5xx are transient; everything
// else in the 4xx range is a caller bug or auth failure and never retried.
func classifyHTTPError(provider string, status int, body []byte) *ProviderError {
	retryable := status == http.StatusTooManyRequests || status >= 500
	return &ProviderError{
		Provider:  provider,
		Status:    status,
		Retryable: retryable,
		Err:       fmt.Errorf("API error: %s", string(body)),
	}
}

// classifyTransportError wraps a transport-level failure. Network timeouts
// and temporary resolution failures are retryable; context cancellation is
// not, so cooperative stop is never fought by the retry loop.
func classifyTransportError(provider string, err error) *ProviderError {
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Provider: provider, Retryable: false, Err: err}
	}
	var netErr net.Error
	retryable := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())
	return &ProviderError{Provider: provider, Retryable: retryable, Err: err}
}
