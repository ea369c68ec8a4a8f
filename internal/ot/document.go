package ot

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Document is the per-session collaborative text buffer: current text, the
// revision counter (non-decreasing on apply, decremented by one per undo),
// the full operation history,
// and the last-acknowledged revision for every joined client (spec.md §3).
//
// Invariants maintained outside an apply/undo critical section:
//   - H1: len(history) == revision
//   - H2: text equals history[0:revision] folded over the empty string
//   - H3: for every client c, clients[c] <= revision
//
// All mutating methods take Document's own mutex, so a Document is safe to
// call concurrently on its own. spec.md §5 additionally requires that, for
// a single document, apply/undo/history/client-membership calls be strictly
// serialized with broadcast order matching commit order; internal/dispatch
// provides that serialization with one goroutine per document. The mutex
// here is defense in depth (e.g. a stats handler reading Text() directly)
// and the unit of atomicity for each individual call.
type Document struct {
	mu        sync.Mutex
	sessionID string
	text      []rune
	revision  int
	clients   map[string]int
	history   []Operation
}

// New creates an empty Document for sessionID: text="", revision=0.
func New(sessionID string) *Document {
	return &Document{
		sessionID: sessionID,
		clients:   make(map[string]int),
	}
}

// SessionID returns the session this document belongs to.
func (d *Document) SessionID() string {
	return d.sessionID
}

// Text returns a copy of the current document text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.text)
}

// Revision returns the current revision number.
func (d *Document) Revision() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revision
}

// SetClientRevision records that clientID has acknowledged the document's
// current revision. Called by the session manager on join (spec.md §4.1
// add_client: "document.clients[client_id] = document.revision").
func (d *Document) SetClientRevision(clientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[clientID] = d.revision
}

// RemoveClientRevision forgets clientID's acknowledged revision. Idempotent.
func (d *Document) RemoveClientRevision(clientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.clients, clientID)
}

// ClientRevision returns the revision clientID last acknowledged, or false if
// clientID is unknown to this document.
func (d *Document) ClientRevision(clientID string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rev, ok := d.clients[clientID]
	return rev, ok
}

// ApplyOperations transforms and applies a batch of operations submitted by
// clientID against clientRevision, per spec.md §4.2. It returns the
// transformed, post-clamp operations in input order, and the document's new
// revision.
//
// client_revision > server revision is treated as equal to the server
// revision (spec.md §4.2 step 3, §7): there is no missed history to
// transform against, so the batch is applied unchanged.
func (d *Document) ApplyOperations(clientID string, clientRevision int, inputs []Input) ([]Operation, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	incoming := make([]Operation, len(inputs))
	for i, in := range inputs {
		incoming[i] = newOperation(in)
	}

	// clientRevision is client-supplied (protocol.EditPayload.Revision) and
	// reaches here unvalidated; clamp it into [0, d.revision] so a negative
	// or otherwise bogus value can't slice history out of bounds. Per
	// spec.md §7, malformed/out-of-range input is absorbed, never fatal.
	if clientRevision < 0 {
		clientRevision = 0
	} else if clientRevision > d.revision {
		clientRevision = d.revision
	}

	var transformed []Operation
	if clientRevision < d.revision {
		missed := d.history[clientRevision:]
		transformed = transformBatch(incoming, missed)
	} else {
		transformed = incoming
	}

	applied := make([]Operation, 0, len(transformed))
	for _, op := range transformed {
		op.ClientID = clientID
		switch op.Type {
		case Insert:
			op.Position = clampInsert(op.Position, len(d.text))
			d.text = spliceInsert(d.text, op.Position, op.Text)
		case Delete:
			op.Position, op.Length = clampDelete(op.Position, op.Length, len(d.text))
			op.DeletedText = string(d.text[op.Position : op.Position+op.Length])
			d.text = spliceDelete(d.text, op.Position, op.Length)
		}
		d.history = append(d.history, op)
		d.revision++
		applied = append(applied, op)
	}

	d.clients[clientID] = d.revision
	return applied, d.revision
}

// UndoLastOperation pops the last history entry and applies its inverse
// directly to the text. It is a true rewind, not a new history entry: the
// inverse is never appended to history, and revision decrements by one
// (spec.md §4.2.2). Undo is global per document, not per-client: it reverts
// whichever operation happens to be last, regardless of who wrote it. This
// is intentional in original_source/server/document.py, which pops history
// unconditionally.
func (d *Document) UndoLastOperation() (Operation, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.history) == 0 {
		return Operation{}, d.revision, fmt.Errorf("nothing to undo")
	}

	last := d.history[len(d.history)-1]
	d.history = d.history[:len(d.history)-1]

	var inverse Operation
	switch last.Type {
	case Insert:
		inverse = Operation{
			ID:          uuid.New(),
			Type:        Delete,
			Position:    last.Position,
			Length:      runeLen(last.Text),
			DeletedText: last.Text,
		}
		d.text = spliceDelete(d.text, inverse.Position, inverse.Length)
	case Delete:
		inverse = Operation{
			ID:       uuid.New(),
			Type:     Insert,
			Position: last.Position,
			Text:     last.DeletedText,
		}
		d.text = spliceInsert(d.text, inverse.Position, inverse.Text)
	}

	d.revision--
	return inverse, d.revision, nil
}

// GetEditHistory returns a copy of the full applied-operation history, in
// order; its length equals Revision() at the instant of the call (spec.md
// §4.2.3, invariant P3).
func (d *Document) GetEditHistory() []Operation {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Operation, len(d.history))
	copy(out, d.history)
	return out
}

func spliceInsert(text []rune, position int, s string) []rune {
	ins := []rune(s)
	out := make([]rune, 0, len(text)+len(ins))
	out = append(out, text[:position]...)
	out = append(out, ins...)
	out = append(out, text[position:]...)
	return out
}

func spliceDelete(text []rune, position, length int) []rune {
	out := make([]rune, 0, len(text)-length)
	out = append(out, text[:position]...)
	out = append(out, text[position+length:]...)
	return out
}
