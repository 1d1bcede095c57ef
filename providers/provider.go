// Package providers implements multi-backend model support with a unified
// calling convention.
//
// The engine talks to every backend through the Provider interface: a single
// Invoke method taking a system prompt plus conversation history and
// returning a normalized response. Providers hide authentication, request
// shaping, and response parsing. Retry, timeout, and rate limiting live in
// Caller so the policy is uniform across backends.
package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dcs-research/simengine/types"
)

// InvokeRequest is a request to a model backend.
type InvokeRequest struct {
	System      string          `json:"system"`
	Messages    []types.Message `json:"messages"`
	Temperature float32         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

// InvokeResponse is a normalized response from a model backend. Raw retains
// the unparsed payload for audit; Attempts counts invocation attempts
// including retries and is filled in by Caller, not by providers.
type InvokeResponse struct {
	Text     string          `json:"text"`
	Usage    types.Usage     `json:"usage"`
	Latency  time.Duration   `json:"latency"`
	Raw      json.RawMessage `json:"raw,omitempty"`
	Attempts int             `json:"attempts,omitempty"`
}

// Defaults holds default call parameters applied when a binding leaves them
// unset.
type Defaults struct {
	Temperature float32
	MaxTokens   int
}

// Provider is the contract every model backend implements.
type Provider interface {
	ID() string
	Invoke(ctx context.Context, req InvokeRequest) (InvokeResponse, error)

	// Close cleans up provider resources (e.g. HTTP connections).
	Close() error
}
