// Package events provides the append-only structured record of everything a
// run did, plus the atomic run-artifact writer.
//
// Append is idempotent by event id: the engine may retry a step after a
// transient failure without double-recording it. The event log is the only
// resource shared by concurrent runs, so stores must be safe under
// concurrent writers.
package events

import (
	"time"

	"github.com/dcs-research/simengine/fidelity"
)

// EventType identifies the type of event emitted by the engine.
type EventType string

const (
	// EventRunStarted marks run start.
	EventRunStarted EventType = "run.started"
	// EventRunCompleted marks normal termination.
	EventRunCompleted EventType = "run.completed"
	// EventRunStopped marks an external stop request taking effect.
	EventRunStopped EventType = "run.stopped"
	// EventRunFailed marks run failure.
	EventRunFailed EventType = "run.failed"

	// EventTurnCompleted marks a completed participant turn.
	EventTurnCompleted EventType = "turn.completed"
	// EventTurnFailed marks a participant turn that failed.
	EventTurnFailed EventType = "turn.failed"

	// EventNodeEntered marks the engine entering a node.
	EventNodeEntered EventType = "node.entered"
	// EventCheckpoint marks a shared-simulation checkpoint record.
	EventCheckpoint EventType = "checkpoint.recorded"
	// EventDriftFlagged marks a persona-drift flag from the wrapper.
	EventDriftFlagged EventType = "drift.flagged"
	// EventValidationRejected marks rejected user input.
	EventValidationRejected EventType = "validation.rejected"

	// EventProviderCallCompleted marks a normalized provider response.
	EventProviderCallCompleted EventType = "provider.call.completed"
	// EventProviderCallFailed marks a provider call that exhausted retries.
	EventProviderCallFailed EventType = "provider.call.failed"
)

// Event is one structured record per state transition. Events are immutable
// once appended.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Node      string    `json:"node,omitempty"`
	Turn      int       `json:"turn,omitempty"`

	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`

	// Metrics carries the turn's fidelity scores on turn.completed and
	// checkpoint events.
	Metrics *fidelity.MetricSet `json:"metrics,omitempty"`

	// Meta carries diagnostic details that never belong in the transcript,
	// e.g. provider retry attempts.
	Meta map[string]any `json:"meta,omitempty"`
}

// Filter specifies criteria for querying events.
type Filter struct {
	RunID string
	Types []EventType
	Since time.Time
	Limit int
}

// Matches reports whether the event satisfies the filter.
func (f *Filter) Matches(e *Event) bool {
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if e.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
