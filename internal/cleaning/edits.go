package cleaning

import (
	"sort"

	"surveyclean/domain/cleaning"
)

// EditTracker records manual cell edits since the last pass. It is a value:
// Record and Clear return a new tracker and leave the receiver unchanged, so
// a pass that has already captured a tracker never sees later edits.
type EditTracker struct {
	edits map[cleaning.CellKey]cleaning.EditRecord
}

// NewEditTracker returns an empty tracker
func NewEditTracker() EditTracker {
	return EditTracker{}
}

// Record adds an edit. A second edit of the same cell keeps the first
// OldValue, so the record always spans back to the last pass.
func (t EditTracker) Record(rec cleaning.EditRecord) EditTracker {
	next := make(map[cleaning.CellKey]cleaning.EditRecord, len(t.edits)+1)
	for k, v := range t.edits {
		next[k] = v
	}
	if prev, ok := next[rec.Key()]; ok {
		rec.OldValue = prev.OldValue
	}
	next[rec.Key()] = rec
	return EditTracker{edits: next}
}

// Len returns the number of edited cells
func (t EditTracker) Len() int {
	return len(t.edits)
}

// IsEmpty reports whether no cell has been edited
func (t EditTracker) IsEmpty() bool {
	return len(t.edits) == 0
}

// Get returns the record for one cell
func (t EditTracker) Get(key cleaning.CellKey) (cleaning.EditRecord, bool) {
	rec, ok := t.edits[key]
	return rec, ok
}

// Rows returns the distinct edited row indices in ascending order; this is
// the delta-clean scope. The result is never nil.
func (t EditTracker) Rows() []int {
	seen := make(map[int]struct{}, len(t.edits))
	rows := make([]int, 0, len(t.edits))
	for k := range t.edits {
		if _, ok := seen[k.Row]; ok {
			continue
		}
		seen[k.Row] = struct{}{}
		rows = append(rows, k.Row)
	}
	sort.Ints(rows)
	return rows
}

// Records returns every edit ordered by row then column
func (t EditTracker) Records() []cleaning.EditRecord {
	out := make([]cleaning.EditRecord, 0, len(t.edits))
	for _, rec := range t.edits {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Column < out[j].Column
	})
	return out
}

// Clear returns an empty tracker
func (t EditTracker) Clear() EditTracker {
	return EditTracker{}
}
