// Package wire defines the WebSocket protocol for dialog sessions.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/form/field"
)

// ── Client → Server messages ────────────────────────────────────────────────

// Client message types. Every form.Event type is also accepted.
const (
	TypeOpen = "open"
	TypePing = "ping"
)

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "open", "change", "stage", "commit", "confirm", "cancel", "retry", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// OpenData is the payload for "open" messages.
type OpenData = form.OpenRequest

// EventData is the payload for the dialog operations. Type comes from the
// envelope.
type EventData struct {
	Key   string      `json:"key,omitempty"`
	Input field.Input `json:"input,omitempty"`
	Text  string      `json:"text,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// Server message types.
const (
	TypeSnapshot = "snapshot"
	TypeError    = "error"
	TypeClosed   = "closed"
	TypePong     = "pong"
)

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "snapshot", "error", "closed", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClosedData reports the final state of a dialog.
type ClosedData struct {
	DialogID string `json:"dialog_id"`
}
