// Package wire defines the WebSocket protocol for live form sessions.
package wire

import (
	"encoding/json"

	"github.com/bh-premnath-git/bhui-sub000/internal/formstate"
	"github.com/bh-premnath-git/bhui-sub000/internal/validate"
)

// Client message types.
const (
	TypeOpen      = "open"
	TypeSet       = "set"
	TypeAddRow    = "add_row"
	TypeRemoveRow = "remove_row"
	TypeUpdateRow = "update_row"
	TypeOptions   = "options"
	TypeValidate  = "validate"
	TypeSubmit    = "submit"
	TypePing      = "ping"
)

// Server message types.
const (
	TypeSession    = "session"
	TypeState      = "state"
	TypeValidation = "validation"
	TypeSubmitted  = "submitted"
	TypeError      = "error"
	TypePong       = "pong"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id"` // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// OpenData is the payload for "open" messages. A SessionID resumes an
// existing session; otherwise a new form is built from Schema and Values.
type OpenData struct {
	Schema    string         `json:"schema"`
	SessionID string         `json:"session_id,omitempty"`
	Values    map[string]any `json:"values,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// SetData is the payload for "set" messages.
type SetData struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// RowData is the payload for the row messages. Index is ignored by
// "add_row"; Value is used by "update_row" only.
type RowData struct {
	Path  string `json:"path"`
	Index int    `json:"index"`
	Value any    `json:"value,omitempty"`
}

// OptionsData is the payload for "options" messages.
type OptionsData struct {
	Options map[string]any `json:"options"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string `json:"session_id"`
	Schema    string `json:"schema"`
}

// StateData is sent after every mutation.
type StateData = formstate.State

// ValidationData carries a validation result.
type ValidationData = validate.Result

// SubmittedData carries the cleaned values of a valid form.
type SubmittedData struct {
	Values map[string]any `json:"values"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
