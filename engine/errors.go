package engine

import (
	"errors"
	"fmt"
)

// ErrDeploymentFinished is returned by Send when the deployment's run has
// already reached a terminal status.
var ErrDeploymentFinished = errors.New("deployment already finished")

// errStopRequested signals a cooperative stop through the input path.
var errStopRequested = errors.New("stop requested")

// NoMatchingEdgeError reports a node whose outgoing guards all failed and
// which has no default edge. It is fatal to the run; the engine flushes the
// partial artifact before surfacing it.
type NoMatchingEdgeError struct {
	Node string
	Turn int
}

func (e *NoMatchingEdgeError) Error() string {
	return fmt.Sprintf("node %q: no outgoing edge matches at turn %d", e.Node, e.Turn)
}

// RunError wraps a run-fatal error with enough context to reproduce it.
type RunError struct {
	RunID string
	Node  string
	Turn  int
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: node %q, turn %d: %v", e.RunID, e.Node, e.Turn, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ValidationError reports rejected player input. The run stays on the
// validation node and asks again; nothing is fatal about it.
type ValidationError struct {
	Check  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("input rejected by %s: %s", e.Check, e.Reason)
}
