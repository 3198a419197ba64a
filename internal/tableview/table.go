package tableview

import (
	"errors"
	"fmt"
)

// NoRecordsText is shown in the placeholder row of an empty view.
const NoRecordsText = "No Records Found"

// SerialHeader and ActionsHeader frame the declared columns.
const (
	SerialHeader  = "S. No"
	ActionsHeader = "Actions"
)

// ErrNoExporter is returned by Export when the table has no exporter.
var ErrNoExporter = errors.New("tableview: export not configured")

// CellRenderer renders one field of a row. Custom renderers bypass Sanitize
// and are responsible for their own escaping.
type CellRenderer func(Record) string

// ActionRenderer renders the actions cell of a row.
type ActionRenderer func(Record) string

// Exporter receives every loaded record when the user asks for a download.
type Exporter func(title string, records []Record) error

// Config is the construction-time configuration of a Table.
type Config struct {
	Title     string
	Columns   []Column
	Renderers map[string]CellRenderer
	Actions   ActionRenderer
	Export    Exporter
	// OnRowClick is ignored when Actions is set.
	OnRowClick func(Record)
}

// Table owns a record slice and the State of its view.
type Table struct {
	cfg     Config
	records []Record
	state   State
}

// New creates a table over records with a fresh state.
func New(cfg Config, records []Record) *Table {
	return &Table{cfg: cfg, records: records, state: NewState()}
}

// Config returns the table configuration.
func (t *Table) Config() Config {
	return t.cfg
}

// SetConfig swaps renderers and callbacks without touching the state.
func (t *Table) SetConfig(cfg Config) {
	t.cfg = cfg
}

// Records returns the loaded records.
func (t *Table) Records() []Record {
	return t.records
}

// SetRecords replaces the records. The view state is recreated; the chosen
// page size is kept.
func (t *Table) SetRecords(records []Record) {
	rpp := t.state.RowsPerPage
	t.records = records
	t.state = NewState()
	if ValidRowsPerPage(rpp) {
		t.state.RowsPerPage = rpp
	}
}

// State returns the current view state.
func (t *Table) State() State {
	return t.state
}

// Dispatch applies an action to the state.
func (t *Table) Dispatch(a Action) {
	t.state = Reduce(t.state, a)
}

func (t *Table) SetSearch(pattern string) { t.Dispatch(SetSearch{Pattern: pattern}) }

func (t *Table) SetColumnFilter(field, pattern string) {
	t.Dispatch(SetColumnFilter{Field: field, Pattern: pattern})
}

func (t *Table) ToggleSort(field string) { t.Dispatch(ToggleSort{Field: field}) }

func (t *Table) SetRowsPerPage(n int) { t.Dispatch(SetRowsPerPage{N: n}) }

func (t *Table) SetPage(n int) { t.Dispatch(SetPage{N: n}) }

func (t *Table) ToggleFilters() { t.Dispatch(ToggleFilters{}) }

// NextPage and PrevPage step through pages without leaving [1, totalPages].
func (t *Table) NextPage() {
	t.Dispatch(StepPage{Delta: 1, TotalPages: t.View().TotalPages})
}

func (t *Table) PrevPage() {
	t.Dispatch(StepPage{Delta: -1, TotalPages: t.View().TotalPages})
}

// View derives the current page window.
func (t *Table) View() View {
	return Derive(t.records, t.state)
}

// ClickRow forwards r to the row-click callback. It reports false when no
// callback is configured or when an action renderer claims row clicks.
func (t *Table) ClickRow(r Record) bool {
	if t.cfg.OnRowClick == nil || t.cfg.Actions != nil {
		return false
	}
	t.cfg.OnRowClick(r)
	return true
}

// Export hands every loaded record, not just the visible page, to the
// configured exporter.
func (t *Table) Export() error {
	if t.cfg.Export == nil {
		return ErrNoExporter
	}
	title := t.cfg.Title
	if title == "" {
		title = "Data"
	}
	if err := t.cfg.Export(title, t.records); err != nil {
		return fmt.Errorf("export %s: %w", title, err)
	}
	return nil
}

// RenderedRow is one rendered line of the table body.
type RenderedRow struct {
	Number int
	Cells  []string
	Action string
	Record Record
}

// Rendered is the display-ready form of a View.
type Rendered struct {
	Headers []string
	Fields  []string
	Rows    []RenderedRow
	// Placeholder is set instead of Rows when nothing matched; it spans
	// Span columns.
	Placeholder string
	Span        int
	Page        int
	TotalPages  int
	Total       int
	HasPrev     bool
	HasNext     bool
}

// PageLabel returns "Page X of Y", with X = 0 when there are no pages.
func (r Rendered) PageLabel() string {
	page := r.Page
	if r.TotalPages == 0 {
		page = 0
	}
	return fmt.Sprintf("Page %d of %d", page, r.TotalPages)
}

// Render produces the display-ready table for the current state.
func (t *Table) Render() Rendered {
	v := t.View()
	out := Rendered{
		Headers:    t.Headers(),
		Fields:     t.Fields(),
		Page:       v.Page,
		TotalPages: v.TotalPages,
		Total:      v.Total,
		HasPrev:    v.Page > 1,
		HasNext:    v.Page < v.TotalPages,
	}
	out.Span = len(out.Headers)

	if v.Empty() {
		out.Placeholder = NoRecordsText
		return out
	}

	out.Rows = make([]RenderedRow, 0, len(v.Rows))
	for _, row := range v.Rows {
		rr := RenderedRow{
			Number: row.Number,
			Cells:  make([]string, len(t.cfg.Columns)),
			Record: row.Record,
		}
		for i, col := range t.cfg.Columns {
			rr.Cells[i] = t.RenderCell(row.Record, col.Field)
		}
		if t.cfg.Actions != nil {
			rr.Action = t.cfg.Actions(row.Record)
		}
		out.Rows = append(out.Rows, rr)
	}
	return out
}

// RenderCell renders one field, preferring a custom renderer.
func (t *Table) RenderCell(r Record, field string) string {
	if render, ok := t.cfg.Renderers[field]; ok && render != nil {
		return render(r)
	}
	return FormatCell(r[field])
}

// Headers returns "S. No", the column labels and "Actions" when configured.
func (t *Table) Headers() []string {
	headers := make([]string, 0, len(t.cfg.Columns)+2)
	headers = append(headers, SerialHeader)
	for _, c := range t.cfg.Columns {
		headers = append(headers, c.Label)
	}
	if t.cfg.Actions != nil {
		headers = append(headers, ActionsHeader)
	}
	return headers
}

// Fields returns the field identifiers of the declared columns.
func (t *Table) Fields() []string {
	fields := make([]string, len(t.cfg.Columns))
	for i, c := range t.cfg.Columns {
		fields[i] = c.Field
	}
	return fields
}
