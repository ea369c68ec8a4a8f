// Package dispatch serializes concurrent join/edit/cursor/undo/leave
// traffic against a single document, per spec.md §5: "within a document,
// strictly serialized" and §9's recommendation of "one goroutine/task per
// document consuming from an inbound channel". It is the Edit Dispatcher
// from spec.md's component table.
//
// The teacher achieves per-document exclusivity with a struct-held
// sync.RWMutex (pkg/server/kolabpad.go's Kolabpad.mu), since ot.Document
// already layers its own mutex for the same purpose. Dispatcher instead
// gives each session its own single-goroutine worker loop, as spec.md §9
// recommends for a goroutine-based runtime: a worker never contends with
// itself, so it needs no mutex of its own, and FIFO delivery from its inbox
// channel trivially gives the ordering guarantee spec.md §5 asks for
// ("broadcast order matches commit order").
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shavel-Viktoryia/collab-editor/internal/broadcast"
	"github.com/Shavel-Viktoryia/collab-editor/internal/logger"
	"github.com/Shavel-Viktoryia/collab-editor/internal/metrics"
	"github.com/Shavel-Viktoryia/collab-editor/internal/ot"
	"github.com/Shavel-Viktoryia/collab-editor/internal/protocol"
	"github.com/Shavel-Viktoryia/collab-editor/internal/session"
)

// Dispatcher routes inbound client events to the owning session's worker
// and emits the resulting events through a Broadcaster.
type Dispatcher struct {
	sessions    *session.Manager
	broadcaster broadcast.Broadcaster
	metrics     *metrics.Metrics

	delayNanos atomic.Int64 // simulated per-process network delay (spec.md §9)

	mu      sync.Mutex
	workers map[string]*worker
	unsub   map[string]func() // per-session broadcast.SessionSubscriber teardown, if any
	closed  bool
}

type worker struct {
	inbox chan func()
}

// New creates a Dispatcher over sessions, delivering events through b.
func New(sessions *session.Manager, b broadcast.Broadcaster) *Dispatcher {
	return &Dispatcher{
		sessions:    sessions,
		broadcaster: b,
		metrics:     metrics.Get(),
		workers:     make(map[string]*worker),
		unsub:       make(map[string]func()),
	}
}

// Close tears down every per-session subscription this Dispatcher started
// against its Broadcaster (see Join), if the Broadcaster is a
// broadcast.SessionSubscriber. Safe to call once during shutdown.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for sessionID, stop := range d.unsub {
		stop()
		delete(d.unsub, sessionID)
	}
}

// Delay returns the current simulated per-process network delay.
func (d *Dispatcher) Delay() time.Duration {
	return time.Duration(d.delayNanos.Load())
}

// workerFor returns sessionID's worker, starting its goroutine loop on
// first use. Workers are never torn down: spec.md §3 specifies no document
// eviction, so each worker lives for the rest of the process too.
func (d *Dispatcher) workerFor(sessionID string) *worker {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.workers[sessionID]
	if ok {
		return w
	}

	w = &worker{inbox: make(chan func(), 64)}
	d.workers[sessionID] = w
	go w.run()
	return w
}

func (w *worker) run() {
	for task := range w.inbox {
		task()
	}
}

// subscribeSession starts the Broadcaster listening for sessionID's events
// from other processes, if it is a broadcast.SessionSubscriber (currently
// only broadcast.RedisBroadcaster; the in-memory Hub is not). Called once,
// the moment this process creates sessionID's Document, so cross-process
// fan-out is live for exactly as long as this process serves the session.
func (d *Dispatcher) subscribeSession(sessionID string) {
	sub, ok := d.broadcaster.(broadcast.SessionSubscriber)
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if _, already := d.unsub[sessionID]; already {
		return
	}
	d.unsub[sessionID] = sub.Subscribe(context.Background(), sessionID)
}

// run applies the simulated network delay outside any critical section
// (spec.md §5: "MUST be applied before entering the critical section... to
// preserve throughput under lag simulation") and then hands task to
// sessionID's worker, blocking until it has executed. The delay sleeps in
// the calling goroutine, not the worker, so one client's simulated lag
// never stalls another client's already-queued edits against the same
// document.
func (d *Dispatcher) run(sessionID string, task func()) {
	if delay := d.Delay(); delay > 0 {
		time.Sleep(delay)
	}

	w := d.workerFor(sessionID)
	done := make(chan struct{})
	w.inbox <- func() {
		defer close(done)
		task()
	}
	<-done
}

// Join handles a "join" event (spec.md §6): registers clientID against
// sessionID, sends "init" to the joiner, and "user_joined" to everyone else.
func (d *Dispatcher) Join(clientID string, p protocol.JoinPayload) {
	d.run(p.SessionID, func() {
		doc, created := d.sessions.AddClient(clientID, p.SessionID, p.Username)
		if created {
			d.metrics.DocumentsActive.Inc()
			d.subscribeSession(p.SessionID)
		}
		d.metrics.ClientsConnected.Inc()

		clients := d.sessions.GetSessionClients(p.SessionID)

		d.broadcaster.SendToClient(clientID, protocol.EventInit, protocol.InitPayload{
			Text:     doc.Text(),
			Revision: doc.Revision(),
			Clients:  clients,
		})
		d.broadcaster.SendToSession(p.SessionID, protocol.EventUserJoined, protocol.UserJoinedPayload{
			ClientID: clientID,
			Clients:  clients,
		}, clientID)
	})
}

// Leave handles a disconnect (spec.md §6): removes clientID's membership
// and broadcasts "user_left" to the rest of the session. sessionID is
// supplied by the caller (the transport layer, which recorded it from the
// client's "join" frame) so that Leave still runs on the correct worker
// even after RemoveClient.
func (d *Dispatcher) Leave(sessionID, clientID string) {
	d.run(sessionID, func() {
		d.sessions.RemoveClient(clientID)
		d.metrics.ClientsConnected.Dec()

		clients := d.sessions.GetSessionClients(sessionID)
		d.broadcaster.SendToSession(sessionID, protocol.EventUserLeft, protocol.UserLeftPayload{
			ClientID: clientID,
			Clients:  clients,
		}, "")
	})
}

// Edit handles an "edit" event (spec.md §4.2, §6): transforms and applies
// the batch, then broadcasts "update" to the rest of the session. An
// unknown session is silently a no-op (spec.md §7).
func (d *Dispatcher) Edit(clientID string, p protocol.EditPayload) {
	d.run(p.SessionID, func() {
		doc, ok := d.sessions.GetDocument(p.SessionID)
		if !ok {
			return
		}

		if rev := doc.Revision(); p.Revision < rev {
			d.metrics.TransformedOperations.Add(float64(len(p.Operations)))
		}

		applied, revision := doc.ApplyOperations(clientID, p.Revision, p.Operations)
		if len(applied) == 0 {
			return
		}
		d.metrics.OperationsApplied.Add(float64(len(applied)))

		d.broadcaster.SendToSession(p.SessionID, protocol.EventUpdate, protocol.UpdatePayload{
			ClientID:   clientID,
			Revision:   revision,
			Operations: applied,
		}, clientID)
	})
}

// Cursor handles a "cursor" event (spec.md §6): a pure pass-through, since
// the core does not store cursor state.
func (d *Dispatcher) Cursor(clientID string, p protocol.CursorPayload) {
	username := p.Username
	if username == "" {
		username = protocol.DefaultUsername
	}
	d.run(p.SessionID, func() {
		d.broadcaster.SendToSession(p.SessionID, protocol.EventCursorUpdate, protocol.CursorUpdatePayload{
			ClientID:     clientID,
			Position:     p.Position,
			SelectionEnd: p.SelectionEnd,
			Username:     username,
		}, clientID)
	})
}

// RequestHistory handles a "request_history" event (spec.md §6): emits
// "history" to the requester only. An unknown session is a silent no-op.
func (d *Dispatcher) RequestHistory(clientID string, p protocol.RequestHistoryPayload) {
	d.run(p.SessionID, func() {
		doc, ok := d.sessions.GetDocument(p.SessionID)
		if !ok {
			return
		}
		d.broadcaster.SendToClient(clientID, protocol.EventHistory, protocol.HistoryPayload(doc.GetEditHistory()))
	})
}

// Undo handles an "undo" event (spec.md §4.2.2, §6): pops and inverts the
// last history entry, then broadcasts both "update" and "history_update" to
// the whole session. An unknown session, or a document with nothing to
// undo, is a silent no-op (spec.md §7).
func (d *Dispatcher) Undo(clientID string, p protocol.UndoPayload) {
	d.run(p.SessionID, func() {
		doc, ok := d.sessions.GetDocument(p.SessionID)
		if !ok {
			return
		}

		inverse, revision, err := doc.UndoLastOperation()
		if err != nil {
			logger.Debug("dispatch: undo on session %s: %v", p.SessionID, err)
			return
		}
		d.metrics.OperationsUndone.Inc()

		d.broadcaster.SendToSession(p.SessionID, protocol.EventUpdate, protocol.UpdatePayload{
			ClientID:   clientID,
			Revision:   revision,
			Operations: []ot.Operation{inverse},
		}, "")
		d.broadcaster.SendToSession(p.SessionID, protocol.EventHistoryUpdate, protocol.HistoryUpdatePayload{
			Operation: inverse,
			Action:    protocol.UndoAction,
		}, "")
	})
}

// SetDelay handles a "set_delay" event (spec.md §6, §9): sets the
// process-wide simulated network delay and broadcasts "delay_updated" to
// the session. The delay is process-wide, not per-session, matching
// original_source's single global NETWORK_DELAY.
func (d *Dispatcher) SetDelay(clientID string, p protocol.SetDelayPayload) {
	if p.Delay < 0 {
		p.Delay = 0
	}
	d.delayNanos.Store(int64(time.Duration(p.Delay) * time.Millisecond))

	d.run(p.SessionID, func() {
		d.broadcaster.SendToSession(p.SessionID, protocol.EventDelayUpdated, protocol.DelayUpdatedPayload{
			Delay: p.Delay,
		}, "")
	})
}
