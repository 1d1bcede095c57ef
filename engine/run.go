package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dcs-research/simengine/definition"
	"github.com/dcs-research/simengine/events"
	"github.com/dcs-research/simengine/fidelity"
	"github.com/dcs-research/simengine/graph"
	"github.com/dcs-research/simengine/logger"
	"github.com/dcs-research/simengine/providers"
	"github.com/dcs-research/simengine/types"
)

// exitCommand is the in-band slash command a player sends to end the run.
const exitCommand = "/exit"

// run is the state of one in-flight execution. It is confined to a single
// goroutine; only the event store it appends to is shared.
type run struct {
	engine *Engine
	graph  *graph.CompiledGraph
	state  *ExecutionState
	agg    *fidelity.Aggregator
	input  InputFunc

	// stopCh, when non-nil, delivers a cooperative stop request honored at
	// suspension boundaries.
	stopCh <-chan struct{}
	// statusFn, when non-nil, mirrors status changes to the deployment.
	statusFn func(RunStatus)

	startedAt time.Time
	seq       int
}

func newRun(e *Engine, g *graph.CompiledGraph, source string, input InputFunc, stopCh <-chan struct{}, statusFn func(RunStatus)) *run {
	return &run{
		engine: e,
		graph:  g,
		state:  newExecutionState(g, source),
		agg:    fidelity.NewAggregator(),
		input:  input,
		stopCh: stopCh,
		statusFn: statusFn,
	}
}

func (r *run) setStatus(s RunStatus) {
	r.state.Status = s
	if r.statusFn != nil {
		r.statusFn(s)
	}
}

func (r *run) stopRequested() bool {
	if r.stopCh == nil {
		return false
	}
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

// loop steps the graph until the run reaches a terminal status.
func (r *run) loop(ctx context.Context) (*events.RunArtifact, error) {
	r.startedAt = r.engine.now()
	logger.RunEvent(r.state.RunID, "started",
		"game", r.graph.Game,
		"start", r.state.Current,
	)
	r.emit(ctx, events.EventRunStarted, nil)

	for {
		// Stop and cancellation are cooperative: honored between steps,
		// never mid-flight inside a model call.
		if r.stopRequested() {
			return r.finish(ctx, StatusStopped, "stop requested", false, nil)
		}
		if err := ctx.Err(); err != nil {
			return r.finish(ctx, StatusStopped, "canceled", false, nil)
		}

		node := r.graph.Node(r.state.Current)
		if node == nil {
			err := &RunError{RunID: r.state.RunID, Node: r.state.Current, Turn: r.state.Turns,
				Err: fmt.Errorf("node not in graph")}
			return r.finish(ctx, StatusFailed, err.Error(), false, err)
		}
		r.emit(ctx, events.EventNodeEntered, func(e *events.Event) {
			e.Node = node.Name
		})

		artifact, done, err := r.step(ctx, node)
		if done {
			return artifact, err
		}
	}
}

// step executes one node. It returns done=true with the finalized artifact
// when the run reached a terminal status.
func (r *run) step(ctx context.Context, node *graph.Node) (*events.RunArtifact, bool, error) {
	switch {
	case node.Sim == graph.SimValidate:
		return r.stepValidate(ctx, node)
	case node.Sim == graph.SimFinalize:
		return r.stepFinalize(ctx, node)
	case node.Role == definition.RoleParticipant:
		return r.stepParticipant(ctx, node)
	case node.Role == definition.RoleNarrator:
		return r.stepNarrator(ctx, node)
	case node.Role == definition.RoleCheckpoint:
		return r.stepCheckpoint(ctx, node)
	case node.Role == definition.RoleTermination:
		return r.stepTermination(ctx, node)
	default:
		err := &RunError{RunID: r.state.RunID, Node: node.Name, Turn: r.state.Turns,
			Err: fmt.Errorf("unknown node role %q", node.Role)}
		artifact, ferr := r.finish(ctx, StatusFailed, err.Error(), false, err)
		return artifact, true, ferr
	}
}

// stepValidate waits for player input and validates it before handing the
// turn to the wrapped participant. Rejected input keeps the run on this
// node and asks again; "/exit" stops the run gracefully.
func (r *run) stepValidate(ctx context.Context, node *graph.Node) (*events.RunArtifact, bool, error) {
	// A new turn starts here, so the global cap applies here.
	if r.state.Turns >= r.graph.MaxTurns {
		artifact, err := r.finish(ctx, StatusCompleted, "max turns reached", false, nil)
		return artifact, true, err
	}

	r.setStatus(StatusSuspendedOnHumanInput)
	input, err := r.input(ctx)
	r.setStatus(StatusRunning)

	if err != nil {
		switch {
		case errors.Is(err, errStopRequested):
			artifact, ferr := r.finish(ctx, StatusStopped, "stop requested", false, nil)
			return artifact, true, ferr
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			artifact, ferr := r.finish(ctx, StatusStopped, "canceled", false, nil)
			return artifact, true, ferr
		default:
			rerr := &RunError{RunID: r.state.RunID, Node: node.Name, Turn: r.state.Turns,
				Err: fmt.Errorf("input source failed: %w", err)}
			artifact, ferr := r.finish(ctx, StatusFailed, rerr.Error(), false, rerr)
			return artifact, true, ferr
		}
	}

	if strings.TrimSpace(input) == exitCommand {
		artifact, ferr := r.finish(ctx, StatusStopped, "user exit", true, nil)
		return artifact, true, ferr
	}

	if verdict := validateInput(ctx, input, r.graph.InputLimit); verdict != nil {
		logger.Debug("input rejected",
			"run_id", r.state.RunID,
			"check", verdict.Check,
		)
		r.emit(ctx, events.EventValidationRejected, func(e *events.Event) {
			e.Node = node.Name
			e.Input = input
			e.Error = verdict.Error()
		})
		r.state.append(&types.Message{
			Type:      types.MessageError,
			Content:   verdict.Error(),
			Node:      node.Name,
			Turn:      r.state.Turns + 1,
			Timestamp: r.engine.now(),
		})
		return nil, false, nil // stay on this node, ask again
	}

	r.state.append(&types.Message{
		Type:      types.MessageUser,
		Content:   input,
		Character: "player",
		Node:      node.Wraps,
		Turn:      r.state.Turns + 1,
		Timestamp: r.engine.now(),
	})
	r.state.lastInput = input
	return r.advance(ctx, node)
}

// stepParticipant invokes the node's bound model and appends the response.
func (r *run) stepParticipant(ctx context.Context, node *graph.Node) (*events.RunArtifact, bool, error) {
	system, err := r.systemPrompt(node)
	if err != nil {
		rerr := &RunError{RunID: r.state.RunID, Node: node.Name, Turn: r.state.Turns + 1, Err: err}
		artifact, ferr := r.finish(ctx, StatusFailed, rerr.Error(), false, rerr)
		return artifact, true, ferr
	}
	req := providers.InvokeRequest{
		System:      system,
		Messages:    r.modelHistory(),
		Temperature: node.Binding.Temperature,
		MaxTokens:   node.Binding.MaxTokens,
	}

	r.setStatus(StatusSuspendedOnModelCall)
	resp, err := r.engine.caller.Invoke(ctx, node.Provider, req)
	r.setStatus(StatusRunning)

	if err != nil {
		r.agg.AddError()
		fidelity.ObserveTurnError(r.graph.Game)
		r.emit(ctx, events.EventProviderCallFailed, func(e *events.Event) {
			e.Node = node.Name
			e.Error = err.Error()
		})
		r.emit(ctx, events.EventTurnFailed, func(e *events.Event) {
			e.Node = node.Name
			e.Turn = r.state.Turns + 1
			e.Error = err.Error()
		})
		rerr := &RunError{RunID: r.state.RunID, Node: node.Name, Turn: r.state.Turns + 1, Err: err}
		artifact, ferr := r.finish(ctx, StatusFailed, rerr.Error(), false, rerr)
		return artifact, true, ferr
	}

	fidelity.ObserveRetries(node.Provider.ID(), resp.Attempts)
	r.emit(ctx, events.EventProviderCallCompleted, func(e *events.Event) {
		e.Node = node.Name
		e.Meta = map[string]any{
			"provider":   node.Provider.ID(),
			"model":      node.Binding.Model,
			"attempts":   resp.Attempts,
			"latency_ms": resp.Latency.Milliseconds(),
			"tokens":     resp.Usage.Total(),
		}
	})

	r.state.Turns++
	r.state.Guards.Turns = r.state.Turns
	r.state.character(node.Character.HID).Turns++
	r.state.append(&types.Message{
		Type:      types.MessageAssistant,
		Content:   resp.Text,
		Character: node.Character.HID,
		Node:      node.Name,
		Turn:      r.state.Turns,
		Timestamp: r.engine.now(),
	})
	r.state.lastOutput = resp.Text
	return r.advance(ctx, node)
}

// stepFinalize scores the completed turn against the character's rubric,
// flags persona drift, and records the checkpoint.
func (r *run) stepFinalize(ctx context.Context, node *graph.Node) (*events.RunArtifact, bool, error) {
	char := node.Character
	var rubric definition.Rubric
	if char != nil {
		rubric = char.Rubric
	}

	ms := fidelity.Score(rubric, r.state.lastInput, r.state.lastOutput)
	r.agg.Add(ms)

	hid := ""
	if char != nil {
		hid = char.HID
		cs := r.state.character(hid)
		cs.LastScore = ms
	}
	fidelity.ObserveTurn(r.graph.Game, hid, ms)

	r.emit(ctx, events.EventTurnCompleted, func(e *events.Event) {
		e.Node = node.Wraps
		e.Input = r.state.lastInput
		e.Output = r.state.lastOutput
		e.Metrics = &ms
	})

	if ms.Overall < r.graph.DriftTolerance {
		logger.Warn("persona drift flagged",
			"run_id", r.state.RunID,
			"character", hid,
			"score", ms.Overall,
			"tolerance", r.graph.DriftTolerance,
		)
		fidelity.ObserveDrift(r.graph.Game, hid)
		if char != nil {
			r.state.character(hid).DriftFlags++
		}
		r.emit(ctx, events.EventDriftFlagged, func(e *events.Event) {
			e.Node = node.Wraps
			e.Metrics = &ms
		})
	}

	r.emit(ctx, events.EventCheckpoint, func(e *events.Event) {
		e.Node = node.Name
		e.Metrics = &ms
	})
	return r.advance(ctx, node)
}

// stepNarrator emits scene text: from the node's bound model when it has
// one, directly from the rendered node prompt otherwise.
func (r *run) stepNarrator(ctx context.Context, node *graph.Node) (*events.RunArtifact, bool, error) {
	system, err := r.systemPrompt(node)
	if err != nil {
		rerr := &RunError{RunID: r.state.RunID, Node: node.Name, Turn: r.state.Turns, Err: err}
		artifact, ferr := r.finish(ctx, StatusFailed, rerr.Error(), false, rerr)
		return artifact, true, ferr
	}

	if node.Provider == nil {
		r.state.append(&types.Message{
			Type:      types.MessageInfo,
			Content:   system,
			Node:      node.Name,
			Turn:      r.state.Turns,
			Timestamp: r.engine.now(),
		})
		return r.advance(ctx, node)
	}

	req := providers.InvokeRequest{
		System:      system,
		Messages:    r.modelHistory(),
		Temperature: node.Binding.Temperature,
		MaxTokens:   node.Binding.MaxTokens,
	}

	r.setStatus(StatusSuspendedOnModelCall)
	resp, err := r.engine.caller.Invoke(ctx, node.Provider, req)
	r.setStatus(StatusRunning)

	if err != nil {
		rerr := &RunError{RunID: r.state.RunID, Node: node.Name, Turn: r.state.Turns, Err: err}
		artifact, ferr := r.finish(ctx, StatusFailed, rerr.Error(), false, rerr)
		return artifact, true, ferr
	}

	fidelity.ObserveRetries(node.Provider.ID(), resp.Attempts)
	r.state.append(&types.Message{
		Type:      types.MessageSystem,
		Content:   resp.Text,
		Node:      node.Name,
		Turn:      r.state.Turns,
		Timestamp: r.engine.now(),
	})
	return r.advance(ctx, node)
}

// stepCheckpoint records an author-declared measurement checkpoint.
func (r *run) stepCheckpoint(ctx context.Context, node *graph.Node) (*events.RunArtifact, bool, error) {
	summary := r.agg.Summarize()
	r.emit(ctx, events.EventCheckpoint, func(e *events.Event) {
		e.Node = node.Name
		e.Meta = map[string]any{
			"turns":        summary.Turns,
			"mean_overall": summary.MeanOverall,
		}
	})
	return r.advance(ctx, node)
}

// stepTermination evaluates the node's edges like any other node; when no
// edge matches, reaching it ends the run.
func (r *run) stepTermination(ctx context.Context, node *graph.Node) (*events.RunArtifact, bool, error) {
	if next, ok := r.nextEdge(node); ok {
		r.state.Current = next
		return nil, false, nil
	}
	artifact, err := r.finish(ctx, StatusCompleted, "termination reached", true, nil)
	return artifact, true, err
}

// nextEdge picks the first edge whose guard matches, committing any guard
// traversal effect. Guards are evaluated in declaration order with the
// default edge last.
func (r *run) nextEdge(node *graph.Node) (string, bool) {
	for i := range node.Edges {
		edge := &node.Edges[i]
		if edge.Guard == nil || edge.Guard.Eval(r.state.Guards) {
			if edge.Guard != nil {
				edge.Guard.Traverse(&r.state.Guards)
			}
			return edge.To, true
		}
	}
	return "", false
}

// advance moves to the node's next edge, failing the run when no edge
// matches on a non-terminal node.
func (r *run) advance(ctx context.Context, node *graph.Node) (*events.RunArtifact, bool, error) {
	if next, ok := r.nextEdge(node); ok {
		r.state.Current = next
		return nil, false, nil
	}

	err := &RunError{
		RunID: r.state.RunID,
		Node:  node.Name,
		Turn:  r.state.Turns,
		Err:   &NoMatchingEdgeError{Node: node.Name, Turn: r.state.Turns},
	}
	artifact, ferr := r.finish(ctx, StatusFailed, err.Error(), false, err)
	return artifact, true, ferr
}

// modelHistory returns the conversational slice of history sent to model
// backends. Engine notices and validation errors stay local.
func (r *run) modelHistory() []types.Message {
	out := make([]types.Message, 0, len(r.state.History))
	for _, msg := range r.state.History {
		switch msg.Type {
		case types.MessageUser, types.MessageAssistant, types.MessageSystem:
			out = append(out, *msg)
		}
	}
	return out
}

// finish finalizes the ExecutionState into a RunArtifact: terminal event,
// metrics summary over whatever transcript exists, atomic artifact write.
// A failed run still flushes its partial artifact before surfacing runErr.
func (r *run) finish(ctx context.Context, status RunStatus, reason string, exited bool, runErr error) (*events.RunArtifact, error) {
	r.setStatus(status)
	r.state.ExitReason = reason
	r.state.Exited = exited

	eventType := events.EventRunCompleted
	switch status {
	case StatusStopped:
		eventType = events.EventRunStopped
	case StatusFailed:
		eventType = events.EventRunFailed
	}
	r.emit(ctx, eventType, func(e *events.Event) {
		e.Meta = map[string]any{"reason": reason}
		if runErr != nil {
			e.Error = runErr.Error()
		}
	})

	summary := r.agg.Summarize()
	artifact := &events.RunArtifact{
		Meta: events.RunMeta{
			RunID:       r.state.RunID,
			Game:        r.graph.Game,
			GameVersion: r.graph.Version,
			Status:      string(status),
			Turns:       r.state.Turns,
			Exited:      exited,
			ExitReason:  reason,
			StartedAt:   r.startedAt,
			EndedAt:     r.engine.now(),
			Environment: events.CaptureEnvironment(),
		},
		Transcript: r.state.History,
		Metrics:    &summary,
	}

	if r.engine.artifacts != nil {
		if _, err := r.engine.artifacts.Write(artifact); err != nil {
			logger.Error("artifact write failed",
				"run_id", r.state.RunID,
				"error", err,
			)
			if runErr == nil {
				runErr = err
			}
		}
	}

	logger.RunEvent(r.state.RunID, "finished",
		"status", status,
		"reason", reason,
		"turns", r.state.Turns,
	)
	return artifact, runErr
}

// emit appends one event to the store. Event ids are derived from the
// run's append sequence, so a retried append of the same step record is a
// no-op at the store.
func (r *run) emit(ctx context.Context, typ events.EventType, mutate func(*events.Event)) {
	if r.engine.store == nil {
		return
	}
	r.seq++
	event := &events.Event{
		ID:        fmt.Sprintf("%s/%06d", r.state.RunID, r.seq),
		Type:      typ,
		Timestamp: r.engine.now(),
		RunID:     r.state.RunID,
		Node:      r.state.Current,
		Turn:      r.state.Turns,
	}
	if mutate != nil {
		mutate(event)
	}
	// Finalization events must land even when the run context is canceled.
	if err := r.engine.store.Append(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("event append failed",
			"run_id", r.state.RunID,
			"type", typ,
			"error", err,
		)
	}
}
