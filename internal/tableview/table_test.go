package tableview

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleColumns() []Column {
	return []Column{
		{Label: "Name", Field: "name"},
		{Label: "Email", Field: "email"},
		{Label: "Dept", Field: "dept"},
	}
}

func sampleRecords() []Record {
	return []Record{
		{"name": "Alice", "email": "alice@uni.edu", "dept": "CS", "year": 2},
		{"name": "bob", "email": "bob@uni.edu", "dept": "EE", "year": 1},
		{"name": "Carol", "email": "carol@uni.edu", "dept": "CS", "year": 3},
		{"name": "dave", "email": "dave@uni.edu", "dept": "ME", "year": 1},
	}
}

func numbered(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{"id": i + 1, "name": fmt.Sprintf("user-%02d", i+1)}
	}
	return out
}

func names(v View) []string {
	out := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Record.Text("name")
	}
	return out
}

func TestEmptyColumnFilterMatchesEverything(t *testing.T) {
	records := sampleRecords()
	tbl := New(Config{Columns: sampleColumns()}, records)
	without := tbl.View()

	tbl.SetColumnFilter("dept", "")
	with := tbl.View()

	assert.Equal(t, without, with)
	assert.Equal(t, len(records), with.Total)
}

func TestRenderIsIdempotent(t *testing.T) {
	tbl := New(Config{Columns: sampleColumns()}, sampleRecords())
	tbl.SetSearch("uni")
	tbl.ToggleSort("name")

	first := tbl.Render()
	second := tbl.Render()
	assert.Equal(t, first, second)
}

func TestToggleSortRotation(t *testing.T) {
	tbl := New(Config{Columns: sampleColumns()}, sampleRecords())
	require.Nil(t, tbl.State().Sort)

	tbl.ToggleSort("name")
	assert.Equal(t, &SortState{Field: "name", Direction: Ascending}, tbl.State().Sort)

	tbl.ToggleSort("name")
	assert.Equal(t, &SortState{Field: "name", Direction: Descending}, tbl.State().Sort)

	tbl.ToggleSort("name")
	assert.Equal(t, &SortState{Field: "name", Direction: Ascending}, tbl.State().Sort, "no unsorted state")

	tbl.ToggleSort("name")
	tbl.ToggleSort("email")
	assert.Equal(t, &SortState{Field: "email", Direction: Ascending}, tbl.State().Sort)
}

func TestSortOrdersByNativeValue(t *testing.T) {
	tbl := New(Config{Columns: sampleColumns()}, sampleRecords())

	tbl.ToggleSort("name")
	assert.Equal(t, []string{"Alice", "Carol", "bob", "dave"}, names(tbl.View()))

	tbl.ToggleSort("name")
	assert.Equal(t, []string{"dave", "bob", "Carol", "Alice"}, names(tbl.View()))

	tbl.ToggleSort("year")
	assert.Equal(t, []string{"bob", "dave", "Alice", "Carol"}, names(tbl.View()))
}

func TestSortIsStable(t *testing.T) {
	records := []Record{
		{"name": "a", "dept": "CS"},
		{"name": "b", "dept": "EE"},
		{"name": "c", "dept": "CS"},
		{"name": "d", "dept": "EE"},
		{"name": "e", "dept": "CS"},
	}
	tbl := New(Config{}, records)

	tbl.ToggleSort("dept")
	assert.Equal(t, []string{"a", "c", "e", "b", "d"}, names(tbl.View()))

	tbl.ToggleSort("dept")
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, names(tbl.View()))
}

func TestSortDoesNotReorderInput(t *testing.T) {
	records := sampleRecords()
	tbl := New(Config{}, records)
	tbl.ToggleSort("name")
	tbl.ToggleSort("name")
	_ = tbl.View()
	assert.Equal(t, "Alice", records[0]["name"])
	assert.Equal(t, "dave", records[3]["name"])
}

func TestPagination(t *testing.T) {
	tbl := New(Config{}, numbered(23))

	v := tbl.View()
	assert.Equal(t, 3, v.TotalPages)
	assert.Len(t, v.Rows, 10)

	tbl.SetPage(3)
	v = tbl.View()
	require.Len(t, v.Rows, 3)
	assert.Equal(t, 21, v.Rows[0].Number)
	assert.Equal(t, 23, v.Rows[2].Number)

	tbl.SetPage(4)
	assert.Empty(t, tbl.View().Rows)

	tbl.SetPage(0)
	assert.Empty(t, tbl.View().Rows)
}

func TestStepPageClamps(t *testing.T) {
	tbl := New(Config{}, numbered(23))

	tbl.PrevPage()
	assert.Equal(t, 1, tbl.State().Page)

	for i := 0; i < 5; i++ {
		tbl.NextPage()
	}
	assert.Equal(t, 3, tbl.State().Page)

	tbl.SetSearch("no such user")
	tbl.NextPage()
	assert.Equal(t, 1, tbl.State().Page)
}

func TestSearchAndFilterResetPage(t *testing.T) {
	tbl := New(Config{}, numbered(23))

	tbl.SetPage(3)
	tbl.SetSearch("user")
	assert.Equal(t, 1, tbl.State().Page)

	tbl.SetPage(2)
	tbl.SetColumnFilter("name", "user-1")
	assert.Equal(t, 1, tbl.State().Page)

	tbl.SetPage(2)
	tbl.SetRowsPerPage(20)
	assert.Equal(t, 1, tbl.State().Page)
	assert.Equal(t, 20, tbl.State().RowsPerPage)
}

func TestSetRowsPerPageIgnoresUnknownSizes(t *testing.T) {
	tbl := New(Config{}, numbered(23))
	tbl.SetPage(2)
	tbl.SetRowsPerPage(7)
	assert.Equal(t, DefaultRowsPerPage, tbl.State().RowsPerPage)
	assert.Equal(t, 2, tbl.State().Page)
}

func TestSearchAndFilterCombine(t *testing.T) {
	records := []Record{
		{"name": "Alice", "dept": "CS"},
		{"name": "Alina", "dept": "EE"},
		{"name": "Bob", "dept": "CS"},
	}
	tbl := New(Config{}, records)

	tbl.SetSearch("ali")
	tbl.SetColumnFilter("dept", "CS")
	assert.Equal(t, []string{"Alice"}, names(tbl.View()))

	tbl.SetColumnFilter("dept", "EE")
	assert.Equal(t, []string{"Alina"}, names(tbl.View()))

	tbl.SetColumnFilter("name", "bob")
	assert.Empty(t, tbl.View().Rows)
}

func TestColumnFiltersAreIndependent(t *testing.T) {
	tbl := New(Config{}, sampleRecords())
	tbl.SetColumnFilter("dept", "cs")
	tbl.SetColumnFilter("name", "car")

	assert.Equal(t, "cs", tbl.State().Filter("dept"))
	assert.Equal(t, []string{"Carol"}, names(tbl.View()))

	tbl.SetColumnFilter("name", "")
	assert.Equal(t, []string{"Alice", "Carol"}, names(tbl.View()))
}

func TestSearchMatchesAnyValue(t *testing.T) {
	tbl := New(Config{Columns: []Column{{Label: "Name", Field: "name"}}}, sampleRecords())

	tbl.SetSearch("DAVE@UNI")
	assert.Equal(t, []string{"dave"}, names(tbl.View()), "search is not limited to declared columns")

	tbl.SetSearch("")
	assert.Equal(t, 4, tbl.View().Total)
}

func TestMissingFieldsRenderEmpty(t *testing.T) {
	tbl := New(Config{Columns: sampleColumns()}, []Record{{"name": "Solo"}})
	out := tbl.Render()
	require.Len(t, out.Rows, 1)
	assert.Equal(t, []string{"Solo", "", ""}, out.Rows[0].Cells)
}

func TestEmptyResultRendersPlaceholder(t *testing.T) {
	tbl := New(Config{Columns: sampleColumns()}, sampleRecords())
	tbl.SetSearch("zzz")

	out := tbl.Render()
	assert.Empty(t, out.Rows)
	assert.Equal(t, NoRecordsText, out.Placeholder)
	assert.Equal(t, 4, out.Span)
	assert.Equal(t, "Page 0 of 0", out.PageLabel())

	tbl.SetConfig(Config{Columns: sampleColumns(), Actions: func(Record) string { return "edit" }})
	assert.Equal(t, 5, tbl.Render().Span)
}

func TestRenderHeadersAndActions(t *testing.T) {
	tbl := New(Config{
		Columns: sampleColumns(),
		Actions: func(r Record) string { return "edit " + r.Text("name") },
	}, sampleRecords())

	out := tbl.Render()
	assert.Equal(t, []string{SerialHeader, "Name", "Email", "Dept", ActionsHeader}, out.Headers)
	assert.Equal(t, "edit Alice", out.Rows[0].Action)
	assert.Equal(t, 1, out.Rows[0].Number)
	assert.Equal(t, "Page 1 of 1", out.PageLabel())
	assert.False(t, out.HasPrev)
	assert.False(t, out.HasNext)
}

func TestCustomRendererBypassesSanitize(t *testing.T) {
	raw := "<b>" + strings.Repeat("x", 100) + "</b>"
	tbl := New(Config{
		Columns:   []Column{{Label: "Bio", Field: "bio"}, {Label: "Raw", Field: "raw"}},
		Renderers: map[string]CellRenderer{"raw": func(r Record) string { return r.Text("raw") }},
	}, []Record{{"bio": raw, "raw": raw}})

	cells := tbl.Render().Rows[0].Cells
	assert.Equal(t, strings.Repeat("x", MaxCellLength)+"...", cells[0])
	assert.Equal(t, raw, cells[1])
}

func TestRowClickSuppressedByActions(t *testing.T) {
	var clicked []string
	onClick := func(r Record) { clicked = append(clicked, r.Text("name")) }

	tbl := New(Config{OnRowClick: onClick}, sampleRecords())
	assert.True(t, tbl.ClickRow(sampleRecords()[0]))

	tbl.SetConfig(Config{OnRowClick: onClick, Actions: func(Record) string { return "" }})
	assert.False(t, tbl.ClickRow(sampleRecords()[1]))

	assert.Equal(t, []string{"Alice"}, clicked)
}

func TestExportUsesAllLoadedRecords(t *testing.T) {
	var gotTitle string
	var got []Record
	tbl := New(Config{
		Title: "All Users",
		Export: func(title string, records []Record) error {
			gotTitle, got = title, records
			return nil
		},
	}, numbered(23))
	tbl.SetSearch("user-2")
	tbl.SetRowsPerPage(5)

	require.NoError(t, tbl.Export())
	assert.Equal(t, "All Users", gotTitle)
	assert.Len(t, got, 23)

	assert.ErrorIs(t, New(Config{}, nil).Export(), ErrNoExporter)
}

func TestSetRecordsRecreatesState(t *testing.T) {
	tbl := New(Config{}, numbered(23))
	tbl.SetRowsPerPage(5)
	tbl.SetSearch("user-1")
	tbl.ToggleSort("name")
	tbl.SetPage(2)

	tbl.SetRecords(numbered(7))
	st := tbl.State()
	assert.Equal(t, "", st.Search)
	assert.Nil(t, st.Sort)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 5, st.RowsPerPage)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := Reduce(NewState(), SetColumnFilter{Field: "dept", Pattern: "CS"})
	next := Reduce(s, SetColumnFilter{Field: "dept", Pattern: "EE"})
	assert.Equal(t, "CS", s.Filter("dept"))
	assert.Equal(t, "EE", next.Filter("dept"))

	assert.Equal(t, s, Reduce(s, nil))
}

func TestCompare(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"ints", 2, 10, -1},
		{"int and float", 2.5, 2, 1},
		{"strings", "b", "a", 1},
		{"numeric string vs number", "10", 9, 1},
		{"text vs number", "abc", 1, 1},
		{"bools", false, true, -1},
		{"times", now, now.Add(time.Second), -1},
		{"nil first", nil, "a", -1},
		{"both nil", nil, nil, 0},
		{"equal", "x", "x", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}
