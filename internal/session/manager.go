// Package session owns the mapping of clients to sessions and the set of
// active documents (spec.md §4.1). It is the SessionManager from spec.md's
// component table.
package session

import (
	"sync"

	"github.com/Shavel-Viktoryia/collab-editor/internal/ot"
)

// ClientSummary is a snapshot of one connected client, as returned by
// GetSessionClients.
type ClientSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Manager owns sessions (session_id -> Document), clients (client_id ->
// session_id), and client_info (client_id -> {username}). Its own state is
// protected by a mutex separate from any Document's internal lock, per
// spec.md §5's lock-order rule: Manager first, then Document, never both
// held across a call into a Broadcaster.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*ot.Document
	clients    map[string]string
	clientInfo map[string]ClientSummary
}

// New creates an empty session manager.
func New() *Manager {
	return &Manager{
		sessions:   make(map[string]*ot.Document),
		clients:    make(map[string]string),
		clientInfo: make(map[string]ClientSummary),
	}
}

// GetOrCreateDocument returns the existing document for sessionID, or
// installs and returns a fresh one (spec.md §4.1), reporting whether it had
// to be created. A document lives for the remainder of the process once
// created; this package performs no eviction.
func (m *Manager) GetOrCreateDocument(sessionID string) (doc *ot.Document, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.sessions[sessionID]
	if !ok {
		doc = ot.New(sessionID)
		m.sessions[sessionID] = doc
		created = true
	}
	return doc, created
}

// GetDocument looks up a document without creating one.
func (m *Manager) GetDocument(sessionID string) (*ot.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.sessions[sessionID]
	return doc, ok
}

// AddClient records clientID as joined to sessionID under username, creating
// the session's document if this is the first client to join it, and seeds
// the client's acknowledged revision at the document's current revision. It
// reports whether a new document was created, so callers can update
// document-count metrics without a second lookup.
func (m *Manager) AddClient(clientID, sessionID, username string) (doc *ot.Document, documentCreated bool) {
	if username == "" {
		username = "Anonymous"
	}

	doc, documentCreated = m.GetOrCreateDocument(sessionID)

	m.mu.Lock()
	m.clients[clientID] = sessionID
	m.clientInfo[clientID] = ClientSummary{ID: clientID, Username: username}
	m.mu.Unlock()

	doc.SetClientRevision(clientID)
	return doc, documentCreated
}

// RemoveClient drops clientID from clients, client_info, and its document's
// per-client revision map, if present. Idempotent for unknown client ids
// (spec.md §4.1).
func (m *Manager) RemoveClient(clientID string) {
	m.mu.Lock()
	sessionID, known := m.clients[clientID]
	delete(m.clients, clientID)
	delete(m.clientInfo, clientID)
	m.mu.Unlock()

	if !known {
		return
	}
	if doc, ok := m.GetDocument(sessionID); ok {
		doc.RemoveClientRevision(clientID)
	}
}

// SessionOf returns the session a client is currently joined to.
func (m *Manager) SessionOf(clientID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessionID, ok := m.clients[clientID]
	return sessionID, ok
}

// Username returns the display name registered for clientID.
func (m *Manager) Username(clientID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.clientInfo[clientID]
	return info.Username, ok
}

// GetSessionClients enumerates the clients currently joined to sessionID.
// Order is unspecified; the result is a point-in-time snapshot (spec.md
// §4.1).
func (m *Manager) GetSessionClients(sessionID string) []ClientSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ClientSummary
	for clientID, sid := range m.clients {
		if sid != sessionID {
			continue
		}
		if info, ok := m.clientInfo[clientID]; ok {
			out = append(out, info)
		}
	}
	return out
}
