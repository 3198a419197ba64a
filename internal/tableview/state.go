package tableview

import "slices"

// Direction is the order of the active sort.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// SortState is the single active sort key.
type SortState struct {
	Field     string
	Direction Direction
}

// RowsPerPageOptions are the page sizes a table accepts.
var RowsPerPageOptions = []int{5, 10, 15, 20, 50, 100}

// DefaultRowsPerPage is the page size of a fresh state.
const DefaultRowsPerPage = 10

// ValidRowsPerPage reports whether n is one of RowsPerPageOptions.
func ValidRowsPerPage(n int) bool {
	return slices.Contains(RowsPerPageOptions, n)
}

// State is everything a table view derives its rows from besides the
// records themselves. It is treated as a value: Reduce never mutates the
// state it is given.
type State struct {
	Search         string
	Filters        map[string]string
	Sort           *SortState
	Page           int
	RowsPerPage    int
	FiltersVisible bool
}

// NewState returns the initial state: no search, no filters, insertion
// order, first page of DefaultRowsPerPage rows.
func NewState() State {
	return State{Page: 1, RowsPerPage: DefaultRowsPerPage}
}

// Filter returns the filter pattern for field, "" when none is set.
func (s State) Filter(field string) string {
	return s.Filters[field]
}

// Action is a state transition applied by Reduce.
type Action interface {
	apply(State) State
}

// Reduce applies a to s and returns the resulting state.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

// SetSearch replaces the whole-row search pattern.
type SetSearch struct {
	Pattern string
}

func (a SetSearch) apply(s State) State {
	s.Search = a.Pattern
	s.Page = 1
	return s
}

// SetColumnFilter replaces the filter pattern of one column.
type SetColumnFilter struct {
	Field   string
	Pattern string
}

func (a SetColumnFilter) apply(s State) State {
	filters := make(map[string]string, len(s.Filters)+1)
	for k, v := range s.Filters {
		filters[k] = v
	}
	filters[a.Field] = a.Pattern
	s.Filters = filters
	s.Page = 1
	return s
}

// ToggleSort sorts by Field ascending, or flips to descending when the table
// is already sorted ascending by Field. There is no way back to insertion
// order once a column has been sorted.
type ToggleSort struct {
	Field string
}

func (a ToggleSort) apply(s State) State {
	dir := Ascending
	if s.Sort != nil && s.Sort.Field == a.Field && s.Sort.Direction == Ascending {
		dir = Descending
	}
	s.Sort = &SortState{Field: a.Field, Direction: dir}
	return s
}

// SetRowsPerPage changes the page size. Sizes outside RowsPerPageOptions are
// ignored.
type SetRowsPerPage struct {
	N int
}

func (a SetRowsPerPage) apply(s State) State {
	if !ValidRowsPerPage(a.N) {
		return s
	}
	s.RowsPerPage = a.N
	s.Page = 1
	return s
}

// SetPage jumps to page N as given. Pages outside [1, totalPages] render an
// empty window.
type SetPage struct {
	N int
}

func (a SetPage) apply(s State) State {
	s.Page = a.N
	return s
}

// StepPage moves Delta pages, clamped to [1, TotalPages].
type StepPage struct {
	Delta      int
	TotalPages int
}

func (a StepPage) apply(s State) State {
	s.Page = ClampPage(s.Page+a.Delta, a.TotalPages)
	return s
}

// ToggleFilters shows or hides the per-column filter inputs. Filters stay in
// effect while hidden.
type ToggleFilters struct{}

func (ToggleFilters) apply(s State) State {
	s.FiltersVisible = !s.FiltersVisible
	return s
}

// ClampPage limits page to [1, totalPages]; with no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}
