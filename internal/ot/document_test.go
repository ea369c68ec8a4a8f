package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historyLen reads the length of d's history through GetEditHistory, used to
// assert H1 (len(history) == revision) without reaching into the unexported
// field directly.
func historyLen(t *testing.T, d *Document) int {
	t.Helper()
	return len(d.GetEditHistory())
}

func TestApplyOperations_SingleInsert(t *testing.T) {
	// spec.md §8 scenario 1.
	d := New("s1")

	ops, rev := d.ApplyOperations("a", 0, []Input{
		{Type: Insert, Position: 0, Text: "hello"},
	})

	require.Len(t, ops, 1)
	assert.Equal(t, "hello", d.Text())
	assert.Equal(t, 1, rev)
	assert.Equal(t, 1, d.Revision())
	assert.Equal(t, historyLen(t, d), d.Revision(), "H1: len(history) == revision")
}

func TestApplyOperations_SequentialInsertsFromOneClient(t *testing.T) {
	// spec.md §8 scenario 2.
	d := New("s1")
	d.ApplyOperations("a", 0, []Input{{Type: Insert, Position: 0, Text: "hello"}})

	_, rev := d.ApplyOperations("a", 1, []Input{{Type: Insert, Position: 5, Text: " world"}})

	assert.Equal(t, "hello world", d.Text())
	assert.Equal(t, 2, rev)
}

func TestApplyOperations_ConcurrentInsertsTieBreakByID(t *testing.T) {
	// spec.md §8 scenario 3 / invariant P4: two inserts at the same position
	// against the same base revision resolve deterministically by op id,
	// not arrival order. newOperation mints a random id per call, so we
	// can't pin which of A/B sorts first; we instead assert the documented
	// relationship between the winner's id and its final position.
	d := New("s1")
	d.ApplyOperations("seed", 0, []Input{{Type: Insert, Position: 0, Text: "ab"}})
	require.Equal(t, "ab", d.Text())
	baseRevision := d.Revision()

	opsA, revA := d.ApplyOperations("a", baseRevision, []Input{
		{Type: Insert, Position: 1, Text: "X"},
	})
	require.Len(t, opsA, 1)
	aOp := opsA[0]
	assert.Equal(t, "aXb", d.Text())
	assert.Equal(t, baseRevision+1, revA)

	opsB, revB := d.ApplyOperations("b", baseRevision, []Input{
		{Type: Insert, Position: 1, Text: "Y"},
	})
	require.Len(t, opsB, 1)
	bOp := opsB[0]
	assert.Equal(t, baseRevision+2, revB)

	if bOp.idGreaterThan(aOp) {
		assert.Equal(t, "aXYb", d.Text())
	} else {
		assert.Equal(t, "aYXb", d.Text())
	}
}

func TestApplyOperations_InsertShiftsDelete(t *testing.T) {
	// spec.md §8 scenario 4.
	d := New("s1")
	d.ApplyOperations("seed", 0, []Input{{Type: Insert, Position: 0, Text: "hello"}})
	base := d.Revision()

	d.ApplyOperations("a", base, []Input{{Type: Insert, Position: 0, Text: "X"}})
	assert.Equal(t, "Xhello", d.Text())

	ops, rev := d.ApplyOperations("b", base, []Input{
		{Type: Delete, Position: 2, Length: 2},
	})

	require.Len(t, ops, 1)
	assert.Equal(t, "Xheo", d.Text())
	assert.Equal(t, base+2, rev)
	assert.Equal(t, "ll", ops[0].DeletedText)
	assert.Equal(t, 3, ops[0].Position)
}

func TestUndo_AfterInsertRoundTrips(t *testing.T) {
	// spec.md §8 invariant P5.
	d := New("s1")
	d.ApplyOperations("a", 0, []Input{{Type: Insert, Position: 0, Text: "hello"}})
	require.Equal(t, "hello", d.Text())
	preRevision := d.Revision()

	d.ApplyOperations("a", preRevision, []Input{{Type: Insert, Position: 5, Text: "!"}})
	require.Equal(t, "hello!", d.Text())

	inverse, rev, err := d.UndoLastOperation()
	require.NoError(t, err)
	assert.Equal(t, Delete, inverse.Type)
	assert.Equal(t, "hello", d.Text())
	assert.Equal(t, preRevision, rev)
}

func TestUndo_AfterDeleteRoundTrips(t *testing.T) {
	// spec.md §8 invariant P6, and scenario 5's continuation.
	d := New("s1")
	d.ApplyOperations("seed", 0, []Input{{Type: Insert, Position: 0, Text: "hello"}})
	base := d.Revision()
	d.ApplyOperations("a", base, []Input{{Type: Insert, Position: 0, Text: "X"}})
	d.ApplyOperations("b", base, []Input{{Type: Delete, Position: 2, Length: 2}})
	require.Equal(t, "Xheo", d.Text())

	inverse, rev, err := d.UndoLastOperation()
	require.NoError(t, err)
	assert.Equal(t, Insert, inverse.Type)
	assert.Equal(t, "ll", inverse.Text)
	assert.Equal(t, "Xhello", d.Text())
	assert.Equal(t, base+1, rev)
}

func TestUndo_EmptyHistoryErrors(t *testing.T) {
	d := New("s1")
	_, _, err := d.UndoLastOperation()
	assert.Error(t, err)
}

func TestApplyOperations_ClientRevisionClampedAtServerRevision(t *testing.T) {
	// spec.md §4.2 step 3 / §7: client_revision > server revision is
	// treated as equal, not an error.
	d := New("s1")
	d.ApplyOperations("seed", 0, []Input{{Type: Insert, Position: 0, Text: "hi"}})

	ops, rev := d.ApplyOperations("a", 999, []Input{{Type: Insert, Position: 2, Text: "!"}})

	require.Len(t, ops, 1)
	assert.Equal(t, "hi!", d.Text())
	assert.Equal(t, 2, rev)
}

func TestApplyOperations_DeleteClampsWhenPastTextEnd(t *testing.T) {
	// spec.md §4.2 step 4 / §7: out-of-range positions after transform are
	// clamped, never rejected.
	d := New("s1")
	d.ApplyOperations("seed", 0, []Input{{Type: Insert, Position: 0, Text: "abc"}})

	ops, _ := d.ApplyOperations("a", 1, []Input{{Type: Delete, Position: 1, Length: 50}})

	require.Len(t, ops, 1)
	assert.Equal(t, "a", d.Text())
	assert.Equal(t, "bc", ops[0].DeletedText)
}

func TestApplyOperations_SetsClientRevision(t *testing.T) {
	// spec.md §8 invariant P2.
	d := New("s1")
	d.SetClientRevision("a")
	d.ApplyOperations("a", 0, []Input{{Type: Insert, Position: 0, Text: "x"}})

	rev, ok := d.ClientRevision("a")
	require.True(t, ok)
	assert.Equal(t, d.Revision(), rev)
}

func TestGetEditHistory_LengthMatchesRevision(t *testing.T) {
	// spec.md §8 invariant P3.
	d := New("s1")
	d.ApplyOperations("a", 0, []Input{
		{Type: Insert, Position: 0, Text: "a"},
		{Type: Insert, Position: 1, Text: "b"},
	})

	assert.Len(t, d.GetEditHistory(), d.Revision())
}
