package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dcs-research/simengine/logger"
)

// BaseProvider provides common functionality shared across HTTP-backed
// provider implementations. Embed it in concrete provider structs.
type BaseProvider struct {
	id     string
	client *http.Client
}

// NewBaseProvider creates a BaseProvider with the given HTTP client.
func NewBaseProvider(id string, client *http.Client) BaseProvider {
	return BaseProvider{
		id:     id,
		client: client,
	}
}

// NewBaseProviderWithAPIKey creates a BaseProvider and retrieves the API key
// from the environment. It tries the primary variable first, then the
// fallback.
func NewBaseProviderWithAPIKey(id, primaryKey, fallbackKey string) (provider BaseProvider, apiKey string) {
	apiKey = os.Getenv(primaryKey)
	if apiKey == "" && fallbackKey != "" {
		apiKey = os.Getenv(fallbackKey)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	return NewBaseProvider(id, client), apiKey
}

// ID returns the provider id.
func (b *BaseProvider) ID() string {
	return b.id
}

// Close closes the HTTP client's idle connections.
func (b *BaseProvider) Close() error {
	if b.client != nil {
		b.client.CloseIdleConnections()
	}
	return nil
}

// RequestHeaders is a map of HTTP header key-value pairs.
type RequestHeaders map[string]string

// MakeJSONRequest performs a JSON HTTP POST with uniform error
// classification. Non-2xx statuses come back as *ProviderError with the
// retryable flag set per classifyHTTPError.
func (b *BaseProvider) MakeJSONRequest(
	ctx context.Context,
	url string,
	request any,
	headers RequestHeaders,
) ([]byte, error) {
	reqBytes, err := json.Marshal(request)
	if err != nil {
		return nil, &ProviderError{
			Provider:  b.id,
			Retryable: false,
			Err:       fmt.Errorf("marshal request: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, &ProviderError{Provider: b.id, Retryable: false, Err: err}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	logHeaders := make(map[string]string, len(headers))
	for k, v := range headers {
		if k == "Authorization" || k == "x-api-key" {
			logHeaders[k] = "***"
		} else {
			logHeaders[k] = v
		}
	}
	logger.Debug("provider request", "provider", b.id, "url", url, "headers", logHeaders)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(b.id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(b.id, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyHTTPError(b.id, resp.StatusCode, body)
	}
	return body, nil
}
