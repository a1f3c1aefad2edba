// Package wire defines the WebSocket chat protocol between the
// presentation layer and the edit engine.
package wire

import (
	"encoding/json"

	"rollcall/internal/engine"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string          `json:"type"` // "start", "select", "input", "choose", "save", "commit", "retry", "cancel", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// StartData is the payload for "start" messages: open an edit session on
// a record already located by the search component.
type StartData struct {
	RecordID string `json:"record_id"`
}

// SelectData is the payload for "select" messages.
type SelectData struct {
	Field string `json:"field"`
}

// InputData is the payload for "input" (free text) and "choose" (enum
// token) messages.
type InputData struct {
	Value string `json:"value"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "reply", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData is sent once after connect.
type SessionData struct {
	OperatorID string `json:"operator_id"`
}

// ReplyData wraps the engine's reply: new state, display text, and the
// affordances valid in that state.
type ReplyData struct {
	*engine.Reply
}

// ErrorData carries a user-facing error.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
