package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dcs-research/simengine/types"
)

func init() {
	RegisterFactory("mock", func(spec Spec) (Provider, error) {
		return NewMockProvider(spec.ID, spec.Model), nil
	})
}

// MockProvider is a provider implementation for testing and development.
// It returns scripted responses without making any API calls. Responses can
// be queued with Script; when the queue is empty a deterministic fallback
// derived from the provider id and model is returned.
//
// FailNext queues transient or terminal failures ahead of the scripted
// responses, which is how retry behavior is exercised in tests.
type MockProvider struct {
	id    string
	model string

	mu       sync.Mutex
	queue    []string
	failures []*ProviderError
	calls    int
}

// NewMockProvider creates a mock provider with a deterministic fallback
// response.
func NewMockProvider(id, model string) *MockProvider {
	return &MockProvider{id: id, model: model}
}

// ID returns the provider id.
func (m *MockProvider) ID() string {
	return m.id
}

// Script queues responses returned by subsequent Invoke calls in order.
func (m *MockProvider) Script(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// FailNext queues n failures before the next successful response.
func (m *MockProvider) FailNext(n int, retryable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.failures = append(m.failures, &ProviderError{
			Provider:  m.id,
			Retryable: retryable,
			Err:       fmt.Errorf("scripted failure"),
		})
	}
}

// Calls returns the number of Invoke calls made, including failed ones.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Invoke returns the next scripted response or failure.
func (m *MockProvider) Invoke(_ context.Context, req InvokeRequest) (InvokeResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if len(m.failures) > 0 {
		failure := m.failures[0]
		m.failures = m.failures[1:]
		return InvokeResponse{}, failure
	}

	text := fmt.Sprintf("Mock response from %s model %s", m.id, m.model)
	if len(m.queue) > 0 {
		text = m.queue[0]
		m.queue = m.queue[1:]
	}

	inputTokens := 0
	for _, msg := range req.Messages {
		inputTokens += len(msg.Content) / 4 // rough approximation: ~4 chars per token
	}
	if inputTokens == 0 {
		inputTokens = 10
	}
	outputTokens := len(text) / 4
	if outputTokens == 0 {
		outputTokens = 20
	}

	return InvokeResponse{
		Text: text,
		Usage: types.Usage{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
		},
		Latency: time.Millisecond,
	}, nil
}

// Close is a no-op for the mock provider.
func (m *MockProvider) Close() error {
	return nil
}
