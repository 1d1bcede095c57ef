package graph

import (
	"fmt"
	"regexp"
	"strconv"
)

// GuardKind is the closed set of guard predicates edges can carry.
type GuardKind string

const (
	// GuardTurnsAtLeast fires when the turn counter has reached the
	// threshold. This is the explicit termination check recognized by
	// cycle analysis.
	GuardTurnsAtLeast GuardKind = "turns_at_least"
	// GuardTurnsBelow fires while the turn counter is under the threshold.
	// It bounds any cycle it appears on.
	GuardTurnsBelow GuardKind = "turns_below"
	// GuardCounter fires while a named counter is positive; traversing the
	// edge decrements the counter, so it is strictly decreasing and bounds
	// any cycle it appears on.
	GuardCounter GuardKind = "countdown"
)

// Guard is a compiled edge predicate over execution state.
type Guard struct {
	Kind      GuardKind
	Threshold int    // turns_at_least / turns_below
	Counter   string // countdown: counter name
	Start     int    // countdown: initial value
	Raw       string // original author text, kept for error reporting
}

// Bounding reports whether this guard bounds a cycle on its own: either a
// strictly-decreasing counter or a turn ceiling.
func (g *Guard) Bounding() bool {
	return g.Kind == GuardCounter || g.Kind == GuardTurnsBelow
}

// GuardState is the slice of execution state guards may observe.
type GuardState struct {
	Turns    int
	Counters map[string]int
}

// Eval evaluates the guard against state. Evaluation never mutates state;
// counter decrements happen when the engine commits to an edge, via Traverse.
func (g *Guard) Eval(s GuardState) bool {
	switch g.Kind {
	case GuardTurnsAtLeast:
		return s.Turns >= g.Threshold
	case GuardTurnsBelow:
		return s.Turns < g.Threshold
	case GuardCounter:
		v, ok := s.Counters[g.Counter]
		if !ok {
			v = g.Start
		}
		return v > 0
	default:
		return false
	}
}

// Traverse applies the guard's traversal effect: countdown guards decrement
// their counter. Other guards have no effect.
func (g *Guard) Traverse(s *GuardState) {
	if g.Kind != GuardCounter {
		return
	}
	if s.Counters == nil {
		s.Counters = make(map[string]int)
	}
	if _, ok := s.Counters[g.Counter]; !ok {
		s.Counters[g.Counter] = g.Start
	}
	s.Counters[g.Counter]--
}

var (
	turnsRe     = regexp.MustCompile(`^turns\s*(>=|<)\s*(\d+|max_turns)$`)
	countdownRe = regexp.MustCompile(`^countdown\s+([a-zA-Z_][a-zA-Z0-9_]*)\s+(\d+)$`)
)

// parseGuard compiles an author-facing when clause. The language is a closed
// set: "turns >= N", "turns < N" (N a literal or max_turns), and
// "countdown NAME START". Anything else is a compile error.
func parseGuard(raw string, maxTurns int) (*Guard, error) {
	if m := turnsRe.FindStringSubmatch(raw); m != nil {
		threshold := maxTurns
		if m[2] != "max_turns" {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("guard %q: bad threshold: %w", raw, err)
			}
			threshold = n
		}
		kind := GuardTurnsAtLeast
		if m[1] == "<" {
			kind = GuardTurnsBelow
		}
		return &Guard{Kind: kind, Threshold: threshold, Raw: raw}, nil
	}

	if m := countdownRe.FindStringSubmatch(raw); m != nil {
		start, err := strconv.Atoi(m[2])
		if err != nil || start <= 0 {
			return nil, fmt.Errorf("guard %q: countdown start must be a positive integer", raw)
		}
		return &Guard{Kind: GuardCounter, Counter: m[1], Start: start, Raw: raw}, nil
	}

	return nil, fmt.Errorf("guard %q: not a recognized predicate", raw)
}
