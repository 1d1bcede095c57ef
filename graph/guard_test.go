package graph

import "testing"

func TestParseGuard(t *testing.T) {
	tests := []struct {
		raw       string
		kind      GuardKind
		threshold int
		counter   string
		start     int
		wantErr   bool
	}{
		{raw: "turns >= 3", kind: GuardTurnsAtLeast, threshold: 3},
		{raw: "turns >= max_turns", kind: GuardTurnsAtLeast, threshold: 10},
		{raw: "turns < 5", kind: GuardTurnsBelow, threshold: 5},
		{raw: "turns < max_turns", kind: GuardTurnsBelow, threshold: 10},
		{raw: "countdown retries 3", kind: GuardCounter, counter: "retries", start: 3},
		{raw: "turns == 3", wantErr: true},
		{raw: "countdown retries 0", wantErr: true},
		{raw: "countdown retries", wantErr: true},
		{raw: "something else", wantErr: true},
		{raw: "turns >= ", wantErr: true},
	}

	for _, tt := range tests {
		g, err := parseGuard(tt.raw, 10)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseGuard(%q): expected error, got %+v", tt.raw, g)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseGuard(%q): %v", tt.raw, err)
			continue
		}
		if g.Kind != tt.kind {
			t.Errorf("parseGuard(%q): kind = %q, want %q", tt.raw, g.Kind, tt.kind)
		}
		if g.Threshold != tt.threshold {
			t.Errorf("parseGuard(%q): threshold = %d, want %d", tt.raw, g.Threshold, tt.threshold)
		}
		if g.Counter != tt.counter || g.Start != tt.start {
			t.Errorf("parseGuard(%q): counter = %q/%d, want %q/%d",
				tt.raw, g.Counter, g.Start, tt.counter, tt.start)
		}
	}
}

func TestGuardEval(t *testing.T) {
	atLeast := &Guard{Kind: GuardTurnsAtLeast, Threshold: 3}
	if atLeast.Eval(GuardState{Turns: 2}) {
		t.Error("turns_at_least fired below threshold")
	}
	if !atLeast.Eval(GuardState{Turns: 3}) {
		t.Error("turns_at_least did not fire at threshold")
	}

	below := &Guard{Kind: GuardTurnsBelow, Threshold: 3}
	if !below.Eval(GuardState{Turns: 2}) {
		t.Error("turns_below did not fire below threshold")
	}
	if below.Eval(GuardState{Turns: 3}) {
		t.Error("turns_below fired at threshold")
	}
}

func TestGuardCounterDecrements(t *testing.T) {
	g := &Guard{Kind: GuardCounter, Counter: "retries", Start: 2}
	state := GuardState{}

	// Eval never mutates; Traverse decrements.
	for i := 0; i < 3; i++ {
		if !g.Eval(state) {
			t.Fatal("counter guard should fire while positive")
		}
	}
	g.Traverse(&state)
	if state.Counters["retries"] != 1 {
		t.Errorf("counter = %d, want 1", state.Counters["retries"])
	}
	g.Traverse(&state)
	if g.Eval(state) {
		t.Error("counter guard fired after reaching zero")
	}
}

func TestGuardBounding(t *testing.T) {
	if (&Guard{Kind: GuardTurnsAtLeast}).Bounding() {
		t.Error("turns_at_least is a termination check, not a bounding guard")
	}
	if !(&Guard{Kind: GuardTurnsBelow}).Bounding() {
		t.Error("turns_below should bound cycles")
	}
	if !(&Guard{Kind: GuardCounter}).Bounding() {
		t.Error("countdown should bound cycles")
	}
}
