package editor

import (
	"slices"

	"coe-console/internal/tableview"
)

// OpType represents the type of an optimistic change.
type OpType int

const (
	OpEdit OpType = iota
	OpDelete
)

func (t OpType) String() string {
	if t == OpDelete {
		return "delete"
	}
	return "edit"
}

// maxHistory bounds the undo stack.
const maxHistory = 50

// Change is one optimistic operation: the affected row before and after it
// was applied locally, and the row's index at that time.
type Change struct {
	ID     int
	Type   OpType
	Key    string
	Index  int
	Before tableview.Record
	After  tableview.Record
}

// ChangeTracker tracks optimistic operations between the local apply and
// the backend's answer, and keeps committed ones for undo.
type ChangeTracker struct {
	keyField string
	nextID   int
	pending  []Change
	history  []Change
}

// NewChangeTracker creates a tracker identifying rows by keyField.
func NewChangeTracker(keyField string) *ChangeTracker {
	return &ChangeTracker{keyField: keyField}
}

func (ct *ChangeTracker) indexOf(records []tableview.Record, key string) int {
	return slices.IndexFunc(records, func(r tableview.Record) bool {
		return r.Text(ct.keyField) == key
	})
}

// Edit applies after in place of the row with the same key and returns the
// new records and the operation ID. ok is false when no such row exists.
func (ct *ChangeTracker) Edit(records []tableview.Record, after tableview.Record) (next []tableview.Record, id int, ok bool) {
	key := after.Text(ct.keyField)
	i := ct.indexOf(records, key)
	if i < 0 {
		return records, 0, false
	}
	next = slices.Clone(records)
	next[i] = after
	id = ct.begin(Change{Type: OpEdit, Key: key, Index: i, Before: records[i], After: after})
	return next, id, true
}

// Delete removes the row with key and returns the new records and the
// operation ID. ok is false when no such row exists.
func (ct *ChangeTracker) Delete(records []tableview.Record, key string) (next []tableview.Record, id int, ok bool) {
	i := ct.indexOf(records, key)
	if i < 0 {
		return records, 0, false
	}
	next = slices.Delete(slices.Clone(records), i, i+1)
	id = ct.begin(Change{Type: OpDelete, Key: key, Index: i, Before: records[i]})
	return next, id, true
}

func (ct *ChangeTracker) begin(c Change) int {
	ct.nextID++
	c.ID = ct.nextID
	ct.pending = append(ct.pending, c)
	return c.ID
}

func (ct *ChangeTracker) take(id int) (Change, bool) {
	i := slices.IndexFunc(ct.pending, func(c Change) bool { return c.ID == id })
	if i < 0 {
		return Change{}, false
	}
	c := ct.pending[i]
	ct.pending = slices.Delete(ct.pending, i, i+1)
	return c, true
}

// Commit moves a confirmed operation onto the undo stack.
func (ct *ChangeTracker) Commit(id int) (Change, bool) {
	c, ok := ct.take(id)
	if !ok {
		return Change{}, false
	}
	ct.history = append(ct.history, c)
	if len(ct.history) > maxHistory {
		ct.history = slices.Delete(ct.history, 0, len(ct.history)-maxHistory)
	}
	return c, true
}

// Rollback undoes a failed operation on current. Only the affected row is
// restored, so rows loaded or changed since the operation began are kept.
func (ct *ChangeTracker) Rollback(id int, current []tableview.Record) ([]tableview.Record, bool) {
	c, ok := ct.take(id)
	if !ok {
		return current, false
	}
	return ct.revert(c, current), true
}

func (ct *ChangeTracker) revert(c Change, current []tableview.Record) []tableview.Record {
	out := slices.Clone(current)
	switch c.Type {
	case OpEdit:
		if i := ct.indexOf(out, c.Key); i >= 0 {
			out[i] = c.Before
		}
	case OpDelete:
		if ct.indexOf(out, c.Key) >= 0 {
			return out
		}
		at := min(c.Index, len(out))
		out = slices.Insert(out, at, c.Before)
	}
	return out
}

// Undo pops the most recent committed operation. Applying the inverse on the
// backend is up to the caller; Revert gives the local records.
func (ct *ChangeTracker) Undo() (Change, bool) {
	if len(ct.history) == 0 {
		return Change{}, false
	}
	c := ct.history[len(ct.history)-1]
	ct.history = ct.history[:len(ct.history)-1]
	return c, true
}

// Revert returns current with c undone.
func (ct *ChangeTracker) Revert(c Change, current []tableview.Record) []tableview.Record {
	return ct.revert(c, current)
}

// Pending reports whether the row with key has an operation in flight.
func (ct *ChangeTracker) Pending(key string) bool {
	return slices.ContainsFunc(ct.pending, func(c Change) bool { return c.Key == key })
}

// PendingCount returns the number of operations in flight.
func (ct *ChangeTracker) PendingCount() int {
	return len(ct.pending)
}

// CanUndo reports whether Undo has anything to pop.
func (ct *ChangeTracker) CanUndo() bool {
	return len(ct.history) > 0
}
