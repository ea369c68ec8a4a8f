package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shavel-Viktoryia/collab-editor/internal/ot"
)

func TestAddClient_CreatesDocumentOnceAndDefaultsUsername(t *testing.T) {
	m := New()

	doc1, created1 := m.AddClient("c1", "room", "")
	doc2, created2 := m.AddClient("c2", "room", "bob")

	assert.True(t, created1)
	assert.False(t, created2)
	assert.Same(t, doc1, doc2)

	username, ok := m.Username("c1")
	require.True(t, ok)
	assert.Equal(t, "Anonymous", username)

	username2, ok := m.Username("c2")
	require.True(t, ok)
	assert.Equal(t, "bob", username2)
}

func TestAddClient_SeedsClientRevisionAtDocumentRevision(t *testing.T) {
	m := New()
	doc, _ := m.GetOrCreateDocument("room")
	doc.ApplyOperations("seed", 0, []ot.Input{{Type: ot.Insert, Position: 0, Text: "hi"}})

	m.AddClient("c1", "room", "alice")

	rev, ok := doc.ClientRevision("c1")
	require.True(t, ok)
	assert.Equal(t, doc.Revision(), rev)
}

func TestRemoveClient_IsIdempotentForUnknownClient(t *testing.T) {
	m := New()
	m.RemoveClient("ghost") // must not panic
}

func TestRemoveClient_ClearsMappings(t *testing.T) {
	m := New()
	m.AddClient("c1", "room", "alice")

	m.RemoveClient("c1")

	_, ok := m.SessionOf("c1")
	assert.False(t, ok)
	_, ok = m.Username("c1")
	assert.False(t, ok)

	doc, _ := m.GetDocument("room")
	_, ok = doc.ClientRevision("c1")
	assert.False(t, ok)
}

func TestGetSessionClients_OnlyReturnsMembersOfThatSession(t *testing.T) {
	m := New()
	m.AddClient("c1", "room-a", "alice")
	m.AddClient("c2", "room-b", "bob")
	m.AddClient("c3", "room-a", "carol")

	clients := m.GetSessionClients("room-a")

	ids := map[string]bool{}
	for _, c := range clients {
		ids[c.ID] = true
	}
	assert.Equal(t, map[string]bool{"c1": true, "c3": true}, ids)
}

func TestGetDocument_LookupOnlyDoesNotCreate(t *testing.T) {
	m := New()
	_, ok := m.GetDocument("room")
	assert.False(t, ok)
}
