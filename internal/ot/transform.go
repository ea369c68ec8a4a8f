package ot

// transformBatch rewrites each incoming operation's position against the
// history the submitting client missed, per spec.md §4.2.1. missed is
// applied cumulatively: M1, M2, ..., Mk each transform every incoming O in
// sequence, left to right within the batch. Operations within the batch are
// not re-transformed against each other — the client is responsible for
// submitting an internally consistent batch (spec.md §4.2.1, "Known
// limitation").
func transformBatch(incoming []Operation, missed []Operation) []Operation {
	out := make([]Operation, len(incoming))
	copy(out, incoming)

	for _, m := range missed {
		for i := range out {
			out[i] = transformOne(out[i], m)
		}
	}
	return out
}

// transformOne applies a single missed operation M to a single incoming
// operation O, returning O with its position rewritten per the table in
// spec.md §4.2.1.
func transformOne(o Operation, m Operation) Operation {
	switch {
	case o.Position < m.Position:
		return o

	case o.Position > m.Position:
		switch m.Type {
		case Insert:
			o.Position += runeLen(m.Text)
		case Delete:
			o.Position = max(m.Position, o.Position-m.Length)
		}
		return o

	default: // o.Position == m.Position
		switch {
		case m.Type == Insert && o.Type == Insert:
			if o.idGreaterThan(m) {
				o.Position += runeLen(m.Text)
			}
		case m.Type == Insert && o.Type == Delete:
			o.Position += runeLen(m.Text)
		case m.Type == Delete && o.Type == Insert:
			o.Position = max(m.Position, o.Position)
		case m.Type == Delete && o.Type == Delete:
			// unchanged; the overlap is absorbed by clamping at apply time.
		}
		return o
	}
}
