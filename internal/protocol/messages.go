package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/Shavel-Viktoryia/collab-editor/internal/ot"
	"github.com/Shavel-Viktoryia/collab-editor/internal/session"
)

// ClientMessage is the envelope every inbound WebSocket frame is decoded
// into: an event name plus its raw payload, deferred-decoded by the
// transport's typed switch (spec.md §9). This is the event-name/payload
// generalization of the teacher's ClientMsg tagged union — the teacher keys
// the union on a Rust enum variant name baked in at compile time, this keys
// it on the event names spec.md §6 fixes as the wire contract.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// JoinPayload is the payload of a "join" event.
type JoinPayload struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
}

// EditPayload is the payload of an "edit" event.
type EditPayload struct {
	SessionID string    `json:"sessionId"`
	Revision  int       `json:"revision"`
	Operations []ot.Input `json:"operations"`
}

// CursorPayload is the payload of a "cursor" event. SelectionEnd is a
// pointer because the field is optional (spec.md §6).
type CursorPayload struct {
	SessionID    string `json:"sessionId"`
	Position     int    `json:"position"`
	SelectionEnd *int   `json:"selectionEnd,omitempty"`
	Username     string `json:"username"`
}

// RequestHistoryPayload is the payload of a "request_history" event.
type RequestHistoryPayload struct {
	SessionID string `json:"sessionId"`
}

// UndoPayload is the payload of an "undo" event.
type UndoPayload struct {
	SessionID string `json:"sessionId"`
}

// SetDelayPayload is the payload of a "set_delay" event.
type SetDelayPayload struct {
	SessionID string `json:"sessionId"`
	Delay     int    `json:"delay"`
}

// DecodeJoin, DecodeEdit, etc. unmarshal ClientMessage.Payload into the
// event-specific shape, returning a wrapped error identifying the event on
// failure (spec.md §7 "malformed payload").

func (m ClientMessage) DecodeJoin() (JoinPayload, error) {
	var p JoinPayload
	err := m.decode(&p)
	return p, err
}

func (m ClientMessage) DecodeEdit() (EditPayload, error) {
	var p EditPayload
	err := m.decode(&p)
	return p, err
}

func (m ClientMessage) DecodeCursor() (CursorPayload, error) {
	var p CursorPayload
	err := m.decode(&p)
	return p, err
}

func (m ClientMessage) DecodeRequestHistory() (RequestHistoryPayload, error) {
	var p RequestHistoryPayload
	err := m.decode(&p)
	return p, err
}

func (m ClientMessage) DecodeUndo() (UndoPayload, error) {
	var p UndoPayload
	err := m.decode(&p)
	return p, err
}

func (m ClientMessage) DecodeSetDelay() (SetDelayPayload, error) {
	var p SetDelayPayload
	err := m.decode(&p)
	return p, err
}

func (m ClientMessage) decode(into any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("protocol: %s: missing payload", m.Event)
	}
	if err := json.Unmarshal(m.Payload, into); err != nil {
		return fmt.Errorf("protocol: %s: %w", m.Event, err)
	}
	return nil
}

// Outbound event payloads (spec.md §4.3). The dispatcher hands each one to
// the Broadcaster together with its event name; the Hub wraps them in a
// broadcast.Event{Event: <name>, Payload: <this>} for the client's channel.

// InitPayload is sent to a newly joined client only.
type InitPayload struct {
	Text     string                   `json:"text"`
	Revision int                      `json:"revision"`
	Clients  []session.ClientSummary  `json:"clients"`
}

// UserJoinedPayload is sent to the rest of the session on join.
type UserJoinedPayload struct {
	ClientID string                  `json:"clientId"`
	Clients  []session.ClientSummary `json:"clients"`
}

// UserLeftPayload is sent to the session on disconnect.
type UserLeftPayload struct {
	ClientID string                  `json:"clientId"`
	Clients  []session.ClientSummary `json:"clients"`
}

// UpdatePayload is sent to the session, excluding the origin, on a
// committed edit.
type UpdatePayload struct {
	ClientID   string         `json:"clientId"`
	Revision   int            `json:"revision"`
	Operations []ot.Operation `json:"operations"`
}

// HistoryPayload is sent to the requester of "request_history". It
// marshals as a bare JSON array, matching spec.md §4.3's
// "history: array of op dicts".
type HistoryPayload []ot.Operation

// HistoryUpdatePayload is sent to the session when an undo commits.
type HistoryUpdatePayload struct {
	Operation ot.Operation `json:"operation"`
	Action    string       `json:"action"`
}

// CursorUpdatePayload is sent to the session, excluding the origin, as a
// pass-through of a "cursor" event.
type CursorUpdatePayload struct {
	ClientID     string `json:"clientId"`
	Position     int    `json:"position"`
	SelectionEnd *int   `json:"selectionEnd,omitempty"`
	Username     string `json:"username"`
}

// DelayUpdatedPayload is sent to the session when the simulated per-process
// network delay changes.
type DelayUpdatedPayload struct {
	Delay int `json:"delay"`
}
