package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendToClient_DeliversOnlyToThatClient(t *testing.T) {
	h := New(4)
	a := h.Register("a", "room")
	b := h.Register("b", "room")

	h.SendToClient("a", "init", map[string]string{"hello": "a"})

	select {
	case ev := <-a:
		assert.Equal(t, "init", ev.Event)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on a")
	}

	select {
	case ev := <-b:
		t.Fatalf("unexpected event on b: %+v", ev)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestSendToSession_ExcludesOriginAndOtherSessions(t *testing.T) {
	h := New(4)
	a := h.Register("a", "room")
	b := h.Register("b", "room")
	c := h.Register("c", "other-room")

	h.SendToSession("room", "update", "payload", "a")

	select {
	case ev := <-b:
		assert.Equal(t, "update", ev.Event)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on b")
	}

	select {
	case ev := <-a:
		t.Fatalf("unexpected event on excluded client a: %+v", ev)
	case <-time.After(10 * time.Millisecond):
	}

	select {
	case ev := <-c:
		t.Fatalf("unexpected event on client in other session: %+v", ev)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestSetSession_RetargetsSessionMembership(t *testing.T) {
	h := New(4)
	ch := h.Register("a", "")

	h.SetSession("a", "room")
	h.SendToSession("room", "init", nil, "")

	select {
	case ev := <-ch:
		assert.Equal(t, "init", ev.Event)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event after SetSession")
	}
}

func TestUnregister_ClosesChannelAndIsIdempotent(t *testing.T) {
	h := New(4)
	ch := h.Register("a", "room")

	h.Unregister("a")
	_, open := <-ch
	assert.False(t, open)

	h.Unregister("a") // must not panic
}

func TestDeliver_DropsWhenChannelFull(t *testing.T) {
	h := New(1)
	ch := h.Register("a", "room")

	h.SendToClient("a", "one", nil)
	h.SendToClient("a", "two", nil) // dropped, buffer size 1

	first := <-ch
	require.Equal(t, "one", first.Event)

	select {
	case ev := <-ch:
		t.Fatalf("expected the second event to be dropped, got %+v", ev)
	case <-time.After(10 * time.Millisecond):
	}
}
