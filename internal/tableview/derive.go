package tableview

import "slices"

// Row is one record in the visible page window.
type Row struct {
	// Number is the 1-based serial number across all filtered rows.
	Number int
	Record Record
}

// View is the page window derived from a record slice and a State.
type View struct {
	Rows       []Row
	Total      int
	TotalPages int
	Page       int
	Offset     int
}

// Empty reports whether the page window has no rows.
func (v View) Empty() bool {
	return len(v.Rows) == 0
}

// Matches reports whether r satisfies the search pattern and every column
// filter of s.
func Matches(r Record, s State) bool {
	if s.Search != "" && !containsFold(r.joinedText(), s.Search) {
		return false
	}
	for field, pattern := range s.Filters {
		if !containsFold(r.Text(field), pattern) {
			return false
		}
	}
	return true
}

// Filter returns the records matching s, in input order.
func Filter(records []Record, s State) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if Matches(r, s) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a stably sorted copy of records. A nil sort keeps input order.
func Sort(records []Record, sortState *SortState) []Record {
	out := slices.Clone(records)
	if sortState == nil {
		return out
	}
	field := sortState.Field
	desc := sortState.Direction == Descending
	slices.SortStableFunc(out, func(a, b Record) int {
		c := Compare(a[field], b[field])
		if desc {
			return -c
		}
		return c
	})
	return out
}

// TotalPages is ceil(total / rowsPerPage).
func TotalPages(total, rowsPerPage int) int {
	if rowsPerPage <= 0 {
		return 0
	}
	return (total + rowsPerPage - 1) / rowsPerPage
}

// Derive computes the visible window. It is a pure function of its inputs.
func Derive(records []Record, s State) View {
	rows := Sort(Filter(records, s), s.Sort)
	rpp := s.RowsPerPage
	if rpp <= 0 {
		rpp = DefaultRowsPerPage
	}

	v := View{
		Total:      len(rows),
		TotalPages: TotalPages(len(rows), rpp),
		Page:       s.Page,
		Offset:     (s.Page - 1) * rpp,
	}
	if s.Page < 1 || v.Offset >= len(rows) {
		return v
	}
	end := min(v.Offset+rpp, len(rows))
	v.Rows = make([]Row, 0, end-v.Offset)
	for i := v.Offset; i < end; i++ {
		v.Rows = append(v.Rows, Row{Number: i + 1, Record: rows[i]})
	}
	return v
}
