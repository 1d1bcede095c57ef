// Package logger provides structured logging for the simulation engine.
//
// It wraps Go's standard log/slog with convenience functions for:
//   - Model API call logging (requests, responses, errors)
//   - Run lifecycle logging (start, turn, stop, finalize)
//   - Level-based verbosity control via the LOG_LEVEL environment variable
//
// All exported functions use the global DefaultLogger which can be swapped
// for a differently-configured instance in tests.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dcs-research/simengine/version"
)

// DefaultLogger is the global structured logger instance.
// It is safe for concurrent use and initialized with slog.LevelInfo by default.
var DefaultLogger *slog.Logger

func init() {
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		switch strings.ToLower(envLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(handler)
	DefaultLogger.Debug("simulation engine starting", version.BuildInfo()...)
}

// SetLevel changes the logging level for all subsequent log operations.
// This is safe for concurrent use as it replaces the entire logger instance.
func SetLevel(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(handler)
}

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// Debug logs a debug-level message with structured attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// Warn logs a warning message with structured attributes.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// ModelCall logs a model API call with structured fields for observability.
// Additional attributes can be passed as key-value pairs.
func ModelCall(provider, model string, messages int, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"model", model,
		"messages", messages,
	)
	allAttrs = append(allAttrs, attrs...)
	DefaultLogger.Debug("model call", allAttrs...)
}

// ModelResponse logs a completed model API call with latency and usage.
func ModelResponse(provider, model string, latency time.Duration, inputTokens, outputTokens int) {
	DefaultLogger.Debug("model response",
		"provider", provider,
		"model", model,
		"latency_ms", latency.Milliseconds(),
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
	)
}

// RunEvent logs a run lifecycle event (started, turn, stopped, finalized).
func RunEvent(runID, event string, attrs ...any) {
	allAttrs := make([]any, 0, 4+len(attrs))
	allAttrs = append(allAttrs, "run_id", runID, "event", event)
	allAttrs = append(allAttrs, attrs...)
	DefaultLogger.Info("run event", allAttrs...)
}
