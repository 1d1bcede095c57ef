// Package engine runs compiled game graphs as suspending state machines.
//
// A run walks its CompiledGraph node by node: narrator nodes emit scene
// text, participant nodes call their bound model through the provider
// layer, and the injected simulation wrapper validates player input before
// each participant turn and scores persona fidelity after it. The run
// suspends at model-call and human-input boundaries, so many runs can be in
// flight concurrently, each owning its ExecutionState exclusively.
//
// Entry points: Run for a bounded local run, Deploy for a long-lived
// session fed input over time. Both finalize into a RunArtifact; stopping a
// deployment preserves the partial transcript and computes metrics over it.
package engine

import (
	"context"
	"time"

	"github.com/dcs-research/simengine/events"
	"github.com/dcs-research/simengine/graph"
	"github.com/dcs-research/simengine/providers"
)

// InputFunc supplies the next player input. It blocks until input is
// available or the context is done.
type InputFunc func(ctx context.Context) (string, error)

// Engine executes compiled graphs. It is safe for concurrent use: all
// per-run state lives in the run, not the engine.
type Engine struct {
	caller    *providers.Caller
	store     events.EventStore
	artifacts *events.ArtifactWriter
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCaller overrides the provider caller (retry, timeout, and rate-limit
// policy).
func WithCaller(c *providers.Caller) Option {
	return func(e *Engine) { e.caller = c }
}

// WithEventStore sets the event store runs append to. Without one, runs
// produce artifacts but no event log.
func WithEventStore(s events.EventStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithArtifactWriter sets the writer run artifacts are persisted with.
// Without one, artifacts are returned to the caller but not written to disk.
func WithArtifactWriter(w *events.ArtifactWriter) Option {
	return func(e *Engine) { e.artifacts = w }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		caller: providers.NewCaller(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOptions configures a single run.
type RunOptions struct {
	// Source tags the run name (e.g. "cli", "deploy"). Defaults to "local".
	Source string

	// Inputs are scripted player inputs consumed in order. When the script
	// is exhausted the run receives "/exit" and stops gracefully.
	Inputs []string

	// Input overrides Inputs with a live input source.
	Input InputFunc
}

func (o RunOptions) inputFunc() InputFunc {
	if o.Input != nil {
		return o.Input
	}
	queue := o.Inputs
	return func(_ context.Context) (string, error) {
		if len(queue) == 0 {
			return exitCommand, nil
		}
		next := queue[0]
		queue = queue[1:]
		return next, nil
	}
}

// Run executes a bounded local run to termination and returns its artifact.
// On failure the returned artifact still covers everything executed up to
// the failure point.
func (e *Engine) Run(ctx context.Context, g *graph.CompiledGraph, opts RunOptions) (*events.RunArtifact, error) {
	r := newRun(e, g, opts.Source, opts.inputFunc(), nil, nil)
	return r.loop(ctx)
}
