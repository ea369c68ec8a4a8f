// Package ot implements the document model and operational-transform engine:
// the Operation value type, the per-session Document, the transform rules
// used to rebase a client's batch against missed history, and the undo
// primitive.
package ot

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Type identifies whether an Operation inserts or deletes text.
type Type string

const (
	Insert Type = "insert"
	Delete Type = "delete"
)

// Operation is a single insert or delete edit against a Document's text.
//
// ID is a random 128-bit identifier minted by the server at apply time (never
// accepted from the client, mirroring original_source/server/document.py's
// TextOperation, whose constructor has no id parameter). It doubles as the
// tie-break key for two concurrent inserts landing at the same position:
// ordering is lexicographic byte comparison, not arrival order, so that the
// rule is reproducible regardless of which op the server happens to see first.
type Operation struct {
	ID          uuid.UUID `json:"id"`
	Type        Type      `json:"type"`
	Position    int       `json:"position"`
	Text        string    `json:"text"`
	Length      int       `json:"length"`
	DeletedText string    `json:"deleted_text"`
	Timestamp   float64   `json:"timestamp"`
	ClientID    string    `json:"clientId,omitempty"`
}

// Input is the shape the server accepts from a client: a proposed edit with
// no id and no deleted_text, since both are server-assigned at apply time.
type Input struct {
	Type     Type   `json:"type"`
	Position int    `json:"position"`
	Text     string `json:"text"`
	Length   int    `json:"length"`
}

// newOperation mints a fresh operation from a client-supplied Input.
func newOperation(in Input) Operation {
	return Operation{
		ID:        uuid.New(),
		Type:      in.Type,
		Position:  in.Position,
		Text:      in.Text,
		Length:    in.Length,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	}
}

// idGreaterThan reports whether o's id sorts after other's, by lexicographic
// byte comparison of the raw 128-bit identifiers (spec.md §3).
func (o Operation) idGreaterThan(other Operation) bool {
	return bytes.Compare(o.ID[:], other.ID[:]) > 0
}

// runeLen returns the length of s in Unicode code points. Document positions
// and lengths are code-point offsets (see SPEC_FULL.md §C): original_source's
// Document slices Python str values, which indexes by code point, not UTF-16
// code unit.
func runeLen(s string) int {
	return len([]rune(s))
}

// clampInsert clamps an insert position into [0, len(text)].
func clampInsert(position, textLen int) int {
	if position < 0 {
		return 0
	}
	if position > textLen {
		return textLen
	}
	return position
}

// clampDelete clamps a delete's position/length so that
// 0 <= position and position+length <= textLen.
func clampDelete(position, length, textLen int) (int, int) {
	if position < 0 {
		position = 0
	}
	if position > textLen {
		position = textLen
	}
	if length < 0 {
		length = 0
	}
	if position+length > textLen {
		length = textLen - position
	}
	return position, length
}
