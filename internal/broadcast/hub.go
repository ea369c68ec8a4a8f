package broadcast

import (
	"sync"

	"github.com/Shavel-Viktoryia/collab-editor/internal/logger"
)

// Hub is the default, in-process Broadcaster: one buffered channel per
// connected client, fed by whichever goroutine calls SendToClient/
// SendToSession and drained by that client's connection handler. This is a
// direct generalization of the teacher's kolabpad.go subscriber map
// (subscribers map[uint64]chan *protocol.ServerMsg / broadcast), adapted to
// the session-scoped fan-out spec.md §4.3 calls for instead of a single
// flat pool of subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*registration
	bufSize int
}

type registration struct {
	sessionID string
	ch        chan Event
}

// New creates a Hub whose per-client channels are buffered to bufSize
// events; a slow or stalled client drops events rather than blocking the
// sender, matching the teacher's "skip if subscriber channel is full"
// broadcast behavior.
func New(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Hub{
		clients: make(map[string]*registration),
		bufSize: bufSize,
	}
}

// Register creates and returns the outbound channel for clientID, scoped to
// sessionID for SendToSession's membership test. The caller (the
// transport's connection handler) is responsible for draining this channel
// until Unregister closes it.
func (h *Hub) Register(clientID, sessionID string) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.bufSize)
	h.clients[clientID] = &registration{sessionID: sessionID, ch: ch}
	return ch
}

// SetSession updates the session a registered client is considered a
// member of for SendToSession's purposes. The transport calls this once a
// connection's first "join" frame tells it which session the client, whose
// WebSocket was registered before that frame arrived, actually belongs to.
func (h *Hub) SetSession(clientID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if reg, ok := h.clients[clientID]; ok {
		reg.sessionID = sessionID
	}
}

// Unregister closes and removes clientID's outbound channel. Idempotent.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reg, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	close(reg.ch)
}

// SendToClient implements Broadcaster.
func (h *Hub) SendToClient(clientID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	reg, ok := h.clients[clientID]
	if !ok {
		return
	}
	h.deliver(clientID, reg, event, payload)
}

// SendToSession implements Broadcaster.
func (h *Hub) SendToSession(sessionID, event string, payload any, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID, reg := range h.clients {
		if reg.sessionID != sessionID || clientID == excludeClientID {
			continue
		}
		h.deliver(clientID, reg, event, payload)
	}
}

func (h *Hub) deliver(clientID string, reg *registration, event string, payload any) {
	select {
	case reg.ch <- Event{Event: event, Payload: payload}:
	default:
		logger.Warn("hub: dropping %s for client %s, channel full", event, clientID)
	}
}
