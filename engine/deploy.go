package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/dcs-research/simengine/events"
	"github.com/dcs-research/simengine/graph"
)

// Deployment is a live, long-running run accepting external input over
// time. Input arrives through Send; Stop forces finalization, preserving
// the partial transcript and computing metrics over it.
type Deployment struct {
	RunID string

	inputs chan string
	stop   chan struct{}
	done   chan struct{}

	stopOnce sync.Once

	mu       sync.Mutex
	status   RunStatus
	artifact *events.RunArtifact
	err      error
}

// Deploy starts a run in the background and returns its handle. The context
// governs the whole deployment; canceling it stops the run cooperatively at
// the next suspension boundary.
func (e *Engine) Deploy(ctx context.Context, g *graph.CompiledGraph, opts RunOptions) (*Deployment, error) {
	if g == nil {
		return nil, fmt.Errorf("deploy: nil graph")
	}

	d := &Deployment{
		inputs: make(chan string),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		status: StatusRunning,
	}

	source := opts.Source
	if source == "" {
		source = "deploy"
	}

	input := func(ctx context.Context) (string, error) {
		select {
		case text := <-d.inputs:
			return text, nil
		case <-d.stop:
			return "", errStopRequested
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	r := newRun(e, g, source, input, d.stop, d.setStatus)
	d.RunID = r.state.RunID

	go func() {
		artifact, err := r.loop(ctx)
		d.mu.Lock()
		d.artifact = artifact
		d.err = err
		d.mu.Unlock()
		close(d.done)
	}()
	return d, nil
}

func (d *Deployment) setStatus(s RunStatus) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

// Status returns the run's current status.
func (d *Deployment) Status() RunStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Send delivers one player input to the run. It blocks until the run is
// ready for input, the run finishes, or the context is done.
func (d *Deployment) Send(ctx context.Context, input string) error {
	select {
	case d.inputs <- input:
		return nil
	case <-d.done:
		return ErrDeploymentFinished
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop requests cooperative finalization and waits for the run's artifact.
// The stop takes effect at the next suspension boundary, never mid-flight
// inside a model call. Stop is idempotent.
func (d *Deployment) Stop(ctx context.Context) (*events.RunArtifact, error) {
	d.stopOnce.Do(func() { close(d.stop) })
	return d.Wait(ctx)
}

// Wait blocks until the run finishes and returns its artifact.
func (d *Deployment) Wait(ctx context.Context) (*events.RunArtifact, error) {
	select {
	case <-d.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.artifact, d.err
}
