package providers

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dcs-research/simengine/logger"
)

// RetryPolicy bounds the exponential backoff applied to retryable failures.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// Jitter is the fraction of the backoff randomized on each attempt,
	// in [0, 1].
	Jitter float64
}

// DefaultRetryPolicy is the policy applied when a caller does not set one.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	Multiplier:     2.0,
	Jitter:         0.2,
}

// Caller invokes providers with a uniform timeout, retry, and rate-limit
// policy independent of backend. It is the engine's single entry point into
// the provider layer, and is safe for concurrent use by many runs.
type Caller struct {
	policy  RetryPolicy
	timeout time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	// sleep is swappable for deterministic tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) CallerOption {
	return func(c *Caller) { c.policy = p }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) CallerOption {
	return func(c *Caller) { c.timeout = d }
}

// DefaultCallTimeout is the per-attempt timeout when none is configured.
const DefaultCallTimeout = 60 * time.Second

// NewCaller creates a Caller with the given options.
func NewCaller(opts ...CallerOption) *Caller {
	c := &Caller{
		policy:   DefaultRetryPolicy,
		timeout:  DefaultCallTimeout,
		limiters: make(map[string]*rate.Limiter),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetRate installs a per-provider rate limit. Callers queue on the limiter
// rather than exceed it, so concurrent runs share each backend fairly.
func (c *Caller) SetRate(providerID string, rps float64, burst int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiters[providerID] = rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *Caller) limiter(providerID string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[providerID]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Inf, 0)
	c.limiters[providerID] = l
	return l
}

// Invoke calls the provider, retrying transient failures with bounded
// exponential backoff. A successful retry is invisible to the caller except
// through InvokeResponse.Attempts, which exists for diagnostics only.
func (c *Caller) Invoke(ctx context.Context, p Provider, req InvokeRequest) (InvokeResponse, error) {
	var lastErr error
	backoff := c.policy.InitialBackoff

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter(p.ID()).Wait(ctx); err != nil {
			return InvokeResponse{}, classifyTransportError(p.ID(), err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := p.Invoke(attemptCtx, req)
		cancel()

		if err == nil {
			resp.Attempts = attempt
			return resp, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == c.policy.MaxAttempts {
			break
		}

		wait := c.jittered(backoff)
		logger.Warn("provider call failed, retrying",
			"provider", p.ID(),
			"attempt", attempt,
			"backoff", wait,
			"error", err,
		)
		if err := c.sleep(ctx, wait); err != nil {
			return InvokeResponse{}, classifyTransportError(p.ID(), err)
		}
		backoff = min(time.Duration(float64(backoff)*c.policy.Multiplier), c.policy.MaxBackoff)
	}

	return InvokeResponse{}, lastErr
}

// jittered randomizes d by the policy's jitter fraction.
func (c *Caller) jittered(d time.Duration) time.Duration {
	if c.policy.Jitter <= 0 {
		return d
	}
	delta := c.policy.Jitter * float64(d)
	return time.Duration(float64(d) - delta + 2*delta*rand.Float64())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
