package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// capture swaps DefaultLogger for one writing into a buffer, restoring the
// original when the test ends.
func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	prev := DefaultLogger
	t.Cleanup(func() { DefaultLogger = prev })

	var buf bytes.Buffer
	DefaultLogger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level}))
	return &buf
}

func TestSetLevelFiltersDebug(t *testing.T) {
	prev := DefaultLogger
	defer func() { DefaultLogger = prev }()

	ctx := context.Background()

	SetLevel(slog.LevelInfo)
	if DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Expected debug to be filtered at info level")
	}

	SetLevel(slog.LevelDebug)
	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Expected debug to be enabled at debug level")
	}
}

func TestModelCall(t *testing.T) {
	buf := capture(t, slog.LevelDebug)

	ModelCall("openrouter", "test-model", 4, "node", "scene")

	out := buf.String()
	for _, want := range []string{"model call", "provider=openrouter", "model=test-model", "messages=4", "node=scene"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
}

func TestModelResponse(t *testing.T) {
	buf := capture(t, slog.LevelDebug)

	ModelResponse("openrouter", "test-model", 1500*time.Millisecond, 10, 20)

	out := buf.String()
	for _, want := range []string{"model response", "latency_ms=1500", "input_tokens=10", "output_tokens=20"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
}

func TestRunEvent(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	RunEvent("explore-local-abc123", "started", "game", "explore")

	out := buf.String()
	for _, want := range []string{"run event", "run_id=explore-local-abc123", "event=started", "game=explore"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
}

func TestHelpersDoNotPanic(t *testing.T) {
	capture(t, slog.LevelDebug)

	Info("test message", "key", "value")
	Debug("test message")
	Warn("test message", "key", "value")
	Error("test message")
}
