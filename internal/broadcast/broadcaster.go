// Package broadcast defines the Broadcaster contract the core uses to push
// events to connected peers (spec.md §4.3), and ships an in-memory
// implementation plus a Redis-backed one for fanning events out across
// server processes.
package broadcast

import "context"

// Broadcaster is the external contract the core depends on. The core never
// knows the transport: it only calls SendToClient/SendToSession with an
// event name and a JSON-marshalable payload, per spec.md §4.3.
type Broadcaster interface {
	// SendToClient delivers an event to exactly one client, if it is
	// currently connected. Unknown clients are silently dropped.
	SendToClient(clientID, event string, payload any)

	// SendToSession delivers an event to every client currently joined to
	// sessionID, except excludeClientID (pass "" to exclude no one).
	SendToSession(sessionID, event string, payload any, excludeClientID string)
}

// SessionSubscriber is implemented by Broadcaster backends that need to
// start listening for a session's events from other processes before this
// process begins serving that session. RedisBroadcaster is the only
// implementation; the in-memory Hub has nothing to subscribe to.
//
// internal/dispatch type-asserts for this interface and calls Subscribe
// exactly once per session, at the moment it creates that session's
// Document — the point at which this process starts owning it.
type SessionSubscriber interface {
	Subscribe(ctx context.Context, sessionID string) (stop func())
}

// Event is the envelope written to a client's outbound channel.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}
