package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coe-console/internal/tableview"
)

func rows() []tableview.Record {
	return []tableview.Record{
		{"id": "A", "name": "Ann"},
		{"id": "B", "name": "Ben"},
		{"id": "C", "name": "Cy"},
	}
}

func TestEditCommit(t *testing.T) {
	ct := NewChangeTracker("id")
	orig := rows()

	next, id, ok := ct.Edit(orig, tableview.Record{"id": "B", "name": "Benny"})
	require.True(t, ok)
	assert.Equal(t, "Benny", next[1]["name"])
	assert.Equal(t, "Ben", orig[1]["name"], "input slice untouched")
	assert.True(t, ct.Pending("B"))

	c, ok := ct.Commit(id)
	require.True(t, ok)
	assert.Equal(t, "Ben", c.Before["name"])
	assert.False(t, ct.Pending("B"))
	assert.Equal(t, 0, ct.PendingCount())
	assert.True(t, ct.CanUndo())

	_, ok = ct.Commit(id)
	assert.False(t, ok)
}

func TestRollbackRestoresDeletedRow(t *testing.T) {
	ct := NewChangeTracker("id")
	orig := rows()

	next, id, ok := ct.Delete(orig, "A")
	require.True(t, ok)
	assert.Len(t, next, 2)

	restored, ok := ct.Rollback(id, next)
	require.True(t, ok)
	assert.Equal(t, rows(), restored)
	assert.False(t, ct.CanUndo())
}

func TestRollbackKeepsOtherPendingChanges(t *testing.T) {
	ct := NewChangeTracker("id")

	afterDelete, delID, ok := ct.Delete(rows(), "B")
	require.True(t, ok)
	afterEdit, _, ok := ct.Edit(afterDelete, tableview.Record{"id": "C", "name": "Cyrus"})
	require.True(t, ok)

	restored, ok := ct.Rollback(delID, afterEdit)
	require.True(t, ok)
	assert.Equal(t, []tableview.Record{
		{"id": "A", "name": "Ann"},
		{"id": "B", "name": "Ben"},
		{"id": "C", "name": "Cyrus"},
	}, restored)
}

func TestRollbackAfterRefetch(t *testing.T) {
	tests := []struct {
		name    string
		start   func(ct *ChangeTracker) int
		fetched []tableview.Record
		want    []tableview.Record
	}{
		{
			name: "edit",
			start: func(ct *ChangeTracker) int {
				_, id, _ := ct.Edit(rows(), tableview.Record{"id": "A", "name": "Annie"})
				return id
			},
			fetched: []tableview.Record{
				{"id": "A", "name": "Annie"},
				{"id": "B", "name": "Ben"},
				{"id": "C", "name": "Cy"},
				{"id": "D", "name": "Dee"},
			},
			want: []tableview.Record{
				{"id": "A", "name": "Ann"},
				{"id": "B", "name": "Ben"},
				{"id": "C", "name": "Cy"},
				{"id": "D", "name": "Dee"},
			},
		},
		{
			name: "delete",
			start: func(ct *ChangeTracker) int {
				_, id, _ := ct.Delete(rows(), "B")
				return id
			},
			fetched: []tableview.Record{
				{"id": "A", "name": "Ann"},
				{"id": "C", "name": "Cy"},
				{"id": "D", "name": "Dee"},
			},
			want: []tableview.Record{
				{"id": "A", "name": "Ann"},
				{"id": "B", "name": "Ben"},
				{"id": "C", "name": "Cy"},
				{"id": "D", "name": "Dee"},
			},
		},
		{
			name: "delete of a row the refetch still has",
			start: func(ct *ChangeTracker) int {
				_, id, _ := ct.Delete(rows(), "C")
				return id
			},
			fetched: append(rows(), tableview.Record{"id": "D", "name": "Dee"}),
			want:    append(rows(), tableview.Record{"id": "D", "name": "Dee"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := NewChangeTracker("id")
			id := tt.start(ct)

			restored, ok := ct.Rollback(id, tt.fetched)
			require.True(t, ok)
			assert.Equal(t, tt.want, restored)
			assert.Equal(t, 0, ct.PendingCount())
		})
	}
}

func TestMissingRow(t *testing.T) {
	ct := NewChangeTracker("id")
	_, _, ok := ct.Edit(rows(), tableview.Record{"id": "Z"})
	assert.False(t, ok)
	_, _, ok = ct.Delete(rows(), "Z")
	assert.False(t, ok)
	_, ok = ct.Rollback(42, rows())
	assert.False(t, ok)
}

func TestUndo(t *testing.T) {
	ct := NewChangeTracker("id")

	next, id, _ := ct.Edit(rows(), tableview.Record{"id": "A", "name": "Anne"})
	ct.Commit(id)
	next, id, _ = ct.Delete(next, "C")
	ct.Commit(id)

	c, ok := ct.Undo()
	require.True(t, ok)
	assert.Equal(t, OpDelete, c.Type)
	next = ct.Revert(c, next)
	assert.Len(t, next, 3)
	assert.Equal(t, "C", next[2]["id"])

	c, ok = ct.Undo()
	require.True(t, ok)
	assert.Equal(t, "edit", c.Type.String())
	next = ct.Revert(c, next)
	assert.Equal(t, rows(), next)

	_, ok = ct.Undo()
	assert.False(t, ok)
}

func TestHistoryIsBounded(t *testing.T) {
	ct := NewChangeTracker("id")
	recs := rows()
	for i := 0; i < maxHistory+10; i++ {
		var id int
		recs, id, _ = ct.Edit(recs, tableview.Record{"id": "A", "name": i})
		ct.Commit(id)
	}
	assert.Len(t, ct.history, maxHistory)
}
