package engine

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dcs-research/simengine/fidelity"
	"github.com/dcs-research/simengine/graph"
	"github.com/dcs-research/simengine/types"
)

// RunStatus is the engine's run state machine.
type RunStatus string

const (
	// StatusRunning means the engine is actively stepping the graph.
	StatusRunning RunStatus = "running"
	// StatusSuspendedOnModelCall means the run is waiting for a model
	// backend to respond.
	StatusSuspendedOnModelCall RunStatus = "suspended_on_model_call"
	// StatusSuspendedOnHumanInput means the run is waiting for player input.
	StatusSuspendedOnHumanInput RunStatus = "suspended_on_human_input"
	// StatusCompleted means the run terminated normally.
	StatusCompleted RunStatus = "completed"
	// StatusStopped means an external stop request ended the run early.
	StatusStopped RunStatus = "stopped"
	// StatusFailed means an unrecoverable error ended the run.
	StatusFailed RunStatus = "failed"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusFailed
}

// CharacterState is the per-character slice of execution state.
type CharacterState struct {
	Turns      int
	DriftFlags int
	LastScore  fidelity.MetricSet
}

// ExecutionState is the mutable state of one in-flight run. It is owned
// exclusively by that run's engine goroutine; nothing here is shared across
// concurrent runs.
type ExecutionState struct {
	RunID   string
	Current string
	Status  RunStatus

	// History is append-only; messages are never mutated once recorded.
	History []*types.Message
	Turns   int
	Guards  graph.GuardState

	Characters map[string]*CharacterState

	ExitReason string
	Exited     bool

	// Last participant exchange, consumed by the finalize checkpoint.
	lastInput  string
	lastOutput string
}

func newExecutionState(g *graph.CompiledGraph, source string) *ExecutionState {
	return &ExecutionState{
		RunID:      runID(g.Game, source),
		Current:    g.Start,
		Status:     StatusRunning,
		Characters: make(map[string]*CharacterState),
	}
}

// character returns the per-character state, creating it on first touch.
func (s *ExecutionState) character(hid string) *CharacterState {
	cs, ok := s.Characters[hid]
	if !ok {
		cs = &CharacterState{}
		s.Characters[hid] = cs
	}
	return cs
}

// append records a message in the run history.
func (s *ExecutionState) append(msg *types.Message) {
	s.History = append(s.History, msg)
}

// runID builds a unique run name of the form <game>-<source>-<suffix>.
func runID(game, source string) string {
	if source == "" {
		source = "local"
	}
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return game + "-" + source + "-" + suffix
}
