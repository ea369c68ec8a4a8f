package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Shavel-Viktoryia/collab-editor/internal/broadcast"
	"github.com/Shavel-Viktoryia/collab-editor/internal/logger"
	"github.com/Shavel-Viktoryia/collab-editor/internal/protocol"
)

// connection is a single client's WebSocket lifecycle: a read loop decoding
// ClientMessage frames into Dispatcher calls, and a write loop draining the
// client's Hub channel. It mirrors the teacher's pkg/server/connection.go
// Connection (read loop + broadcastUpdates goroutine + mutex-guarded send),
// generalized from Kolabpad's single edit/cursor/language/user-info surface
// to the fuller join/edit/cursor/request_history/undo/set_delay event table
// spec.md §6 specifies.
type connection struct {
	server    *Server
	clientID  string
	sessionID string // set on the first "join" frame
	conn      *websocket.Conn
	sendMu    sync.Mutex
}

// handleWebSocket upgrades the request and runs the connection until it
// closes or errors. The URL's session_id segment is cosmetic; the client's
// own "join" frame is what actually binds this connection to a session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		logger.Warn("transport: websocket upgrade failed: %v", err)
		return
	}

	c := &connection{
		server:   s,
		clientID: newClientID(),
		conn:     conn,
	}

	if err := c.run(r.Context()); err != nil {
		logger.Debug("transport: connection %s closed: %v", c.clientID, err)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (c *connection) run(ctx context.Context) error {
	outbound := c.server.hub.Register(c.clientID, "")
	defer c.server.hub.Unregister(c.clientID)

	writeErrs := make(chan error, 1)
	go c.writeLoop(ctx, outbound, writeErrs)

	for {
		select {
		case err := <-writeErrs:
			c.leave()
			return err
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		var msg protocol.ClientMessage
		err := wsjson.Read(readCtx, c.conn, &msg)
		cancel()
		if err != nil {
			if readCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				continue // idle timeout, not a real disconnect; re-check writeErrs
			}
			c.leave()
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		if err := c.handle(msg); err != nil {
			logger.Warn("transport: client %s: %v", c.clientID, err)
		}
	}
}

// handle decodes msg by its event name and calls the matching Dispatcher
// method — the "typed switch over inbound event names" spec.md §9
// recommends.
func (c *connection) handle(msg protocol.ClientMessage) error {
	switch msg.Event {
	case protocol.EventJoin:
		p, err := msg.DecodeJoin()
		if err != nil {
			return err
		}
		c.sessionID = p.SessionID
		c.server.hub.SetSession(c.clientID, p.SessionID)
		c.server.dispatcher.Join(c.clientID, p)

	case protocol.EventEdit:
		p, err := msg.DecodeEdit()
		if err != nil {
			return err
		}
		c.server.dispatcher.Edit(c.clientID, p)

	case protocol.EventCursor:
		p, err := msg.DecodeCursor()
		if err != nil {
			return err
		}
		c.server.dispatcher.Cursor(c.clientID, p)

	case protocol.EventRequestHistory:
		p, err := msg.DecodeRequestHistory()
		if err != nil {
			return err
		}
		c.server.dispatcher.RequestHistory(c.clientID, p)

	case protocol.EventUndo:
		p, err := msg.DecodeUndo()
		if err != nil {
			return err
		}
		c.server.dispatcher.Undo(c.clientID, p)

	case protocol.EventSetDelay:
		p, err := msg.DecodeSetDelay()
		if err != nil {
			return err
		}
		c.server.dispatcher.SetDelay(c.clientID, p)

	default:
		return fmt.Errorf("unknown event %q", msg.Event)
	}
	return nil
}

// leave removes the client from its session, if it ever joined one.
// Disconnecting before a join frame arrived is a no-op in SessionManager
// (spec.md §4.1: idempotent for unknown client ids).
func (c *connection) leave() {
	if c.sessionID == "" {
		return
	}
	c.server.dispatcher.Leave(c.sessionID, c.clientID)
}

func (c *connection) writeLoop(ctx context.Context, outbound <-chan broadcast.Event, errs chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-outbound:
			if !ok {
				return
			}
			if err := c.send(ctx, event); err != nil {
				errs <- err
				return
			}
		}
	}
}

func (c *connection) send(ctx context.Context, event broadcast.Event) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}
