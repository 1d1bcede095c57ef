package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
	}

	for _, tt := range tests {
		err := classifyHTTPError("test", tt.status, []byte("boom"))
		assert.Equal(t, tt.retryable, err.Retryable, "status %d", tt.status)
		assert.Equal(t, tt.status, err.Status)
	}
}

func TestClassifyTransportErrorCancellation(t *testing.T) {
	err := classifyTransportError("test", context.Canceled)
	assert.False(t, err.Retryable, "cancellation must not be retried")

	err = classifyTransportError("test", context.DeadlineExceeded)
	assert.True(t, err.Retryable, "timeouts are transient")
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := &ProviderError{Provider: "p", Retryable: true, Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "retryable")

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsRetryable(wrapped))
}
