// Package types defines the shared message and usage types exchanged between
// the engine, providers, and the event log.
package types

import "time"

// MessageType classifies a simulation message. Participant output is
// "assistant", player input is "user", engine notices are "info", and
// validation or runtime failures are "error".
type MessageType string

const (
	// MessageUser is input attributed to the player character.
	MessageUser MessageType = "user"
	// MessageAssistant is output produced by a simulated character.
	MessageAssistant MessageType = "assistant"
	// MessageSystem is a system prompt or narrator framing message.
	MessageSystem MessageType = "system"
	// MessageInfo is an engine-generated notice (welcome text, checkpoints).
	MessageInfo MessageType = "info"
	// MessageError is a validation or runtime failure surfaced in-band.
	MessageError MessageType = "error"
)

// Message is one entry in a run's conversation history. History is
// append-only; messages are never mutated after being recorded.
type Message struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Character string      `json:"character,omitempty"` // character id for user/assistant messages
	Node      string      `json:"node,omitempty"`      // graph node that produced the message
	Turn      int         `json:"turn"`
	Timestamp time.Time   `json:"timestamp"`
}

// Usage reports token counts for a single provider call, when the backend
// makes them available. Zero values mean the backend reported nothing.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the combined token count.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}
