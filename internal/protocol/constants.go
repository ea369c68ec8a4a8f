// Package protocol defines the WebSocket wire protocol between client and
// server: the inbound event envelope, one payload type per event, and the
// event-name constants used both to decode a ClientMessage and to label an
// outbound broadcast.Event (spec.md §6). It replaces the teacher's
// Rustpad-compatible protocol with the event-name/payload shape this core's
// operations require, keeping the teacher's tagged-dispatch idiom (see the
// switch on ClientMessage.Event in internal/transport's connection.handle,
// and spec.md §9's "typed switch over inbound event names" recommendation).
package protocol

// Event names, shared by inbound ClientMessage.Event and outbound
// broadcast.Event.Event.
const (
	EventJoin           = "join"
	EventEdit           = "edit"
	EventCursor         = "cursor"
	EventRequestHistory = "request_history"
	EventUndo           = "undo"
	EventSetDelay       = "set_delay"

	EventInit          = "init"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventUpdate        = "update"
	EventHistory       = "history"
	EventHistoryUpdate = "history_update"
	EventCursorUpdate  = "cursor_update"
	EventDelayUpdated  = "delay_updated"
)

// UndoAction is the only action value history_update currently carries
// (spec.md §4.3).
const UndoAction = "undo"

// DefaultUsername is substituted for a join or cursor event that omits
// username (spec.md §6).
const DefaultUsername = "Anonymous"
