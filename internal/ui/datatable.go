package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"coe-console/internal/tableview"
)

// RowClickedMsg is sent when enter is pressed on a row of a table without
// actions.
type RowClickedMsg struct {
	Record tableview.Record
}

// EditRequestedMsg and DeleteRequestedMsg come from the actions column.
type EditRequestedMsg struct {
	Record tableview.Record
}

type DeleteRequestedMsg struct {
	Record tableview.Record
}

// UploadRequestedMsg asks the host to open the upload dialog.
type UploadRequestedMsg struct{}

// ExportDoneMsg reports the end of an export started with x.
type ExportDoneMsg struct {
	Title string
	Err   error
}

type tableMode int

const (
	modeBrowse tableMode = iota
	modeSearch
	modeFilter
)

const (
	maxColWidth = 30
	minColWidth = 4
)

// DataTableModel is the keyboard-driven rendition of a tableview.Table.
type DataTableModel struct {
	table    *tableview.Table
	rowClick bool
	upload   bool
	pending  func(tableview.Record) bool

	mode   tableMode
	input  textinput.Model
	cursor int
	col    int

	focused bool
	width   int
	height  int
}

// TableOptions selects which optional interactions a DataTableModel offers.
type TableOptions struct {
	// RowClick emits RowClickedMsg on enter. Ignored when the table has
	// actions.
	RowClick bool
	// Upload enables the u key.
	Upload bool
	// Pending marks rows whose change has not been confirmed yet.
	Pending func(tableview.Record) bool
}

// pendingMark follows the serial number of a row awaiting confirmation.
const pendingMark = "*"

// NewDataTableModel creates a table component.
func NewDataTableModel(cfg tableview.Config, opts TableOptions) DataTableModel {
	if opts.RowClick && cfg.OnRowClick == nil {
		cfg.OnRowClick = func(tableview.Record) {}
	}
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Prompt = ""
	return DataTableModel{
		table:    tableview.New(cfg, nil),
		rowClick: opts.RowClick,
		upload:   opts.Upload,
		pending:  opts.Pending,
		input:    ti,
	}
}

// Table exposes the underlying view engine.
func (m DataTableModel) Table() *tableview.Table {
	return m.table
}

// SetRecords replaces the records and resets the view.
func (m *DataTableModel) SetRecords(records []tableview.Record) {
	m.table.SetRecords(records)
	m.cursor = 0
	m.mode = modeBrowse
	m.input.Blur()
}

// SetRowsPerPage sets the page size if it is a valid option.
func (m *DataTableModel) SetRowsPerPage(n int) {
	m.table.SetRowsPerPage(n)
}

// SetFocused sets focus state.
func (m *DataTableModel) SetFocused(f bool) {
	m.focused = f
	if !f && m.mode != modeBrowse {
		m.mode = modeBrowse
		m.input.Blur()
	}
}

// Focused returns focus state.
func (m DataTableModel) Focused() bool {
	return m.focused
}

// Typing reports whether keystrokes go to the search or filter input.
func (m DataTableModel) Typing() bool {
	return m.mode != modeBrowse
}

// SetSize sets the table dimensions.
func (m *DataTableModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// CurrentRecord returns the record under the cursor.
func (m DataTableModel) CurrentRecord() (tableview.Record, bool) {
	v := m.table.View()
	if m.cursor < 0 || m.cursor >= len(v.Rows) {
		return nil, false
	}
	return v.Rows[m.cursor].Record, true
}

// CurrentField returns the field of the selected column.
func (m DataTableModel) CurrentField() string {
	fields := m.table.Fields()
	if m.col < 0 || m.col >= len(fields) {
		return ""
	}
	return fields[m.col]
}

// Hints returns the keybinding summary for the status bar.
func (m DataTableModel) Hints() string {
	switch m.mode {
	case modeSearch:
		return "Type to search | Enter/Esc Done"
	case modeFilter:
		return "Type to filter column | Enter/Esc Done"
	}
	parts := []string{"/ Search", "f Filters", "s Sort", "[ ] Page", "r Rows"}
	if m.table.Config().Actions != nil {
		parts = append(parts, "e Edit", "d Delete")
	}
	if m.table.Config().Export != nil {
		parts = append(parts, "x Download")
	}
	if m.upload {
		parts = append(parts, "u Upload")
	}
	return strings.Join(parts, " | ")
}

// Init satisfies tea.Model.
func (m DataTableModel) Init() tea.Cmd {
	return nil
}

// Update handles key events.
func (m DataTableModel) Update(msg tea.Msg) (DataTableModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.mode != modeBrowse {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch m.mode {
	case modeSearch, modeFilter:
		return m.updateInput(keyMsg)
	}
	return m.updateBrowse(keyMsg)
}

func (m DataTableModel) updateInput(msg tea.KeyMsg) (DataTableModel, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeSearch {
		if m.input.Value() != m.table.State().Search {
			m.table.SetSearch(m.input.Value())
			m.cursor = 0
		}
	} else if field := m.CurrentField(); field != "" {
		if m.input.Value() != m.table.State().Filter(field) {
			m.table.SetColumnFilter(field, m.input.Value())
			m.cursor = 0
		}
	}
	return m, cmd
}

func (m DataTableModel) updateBrowse(msg tea.KeyMsg) (DataTableModel, tea.Cmd) {
	cfg := m.table.Config()

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.table.View().Rows)-1 {
			m.cursor++
		}
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
	case "right", "l":
		if m.col < len(cfg.Columns)-1 {
			m.col++
		}
	case "/":
		m.mode = modeSearch
		m.input.Placeholder = "Search"
		m.input.SetValue(m.table.State().Search)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "f":
		m.table.ToggleFilters()
	case "c":
		field := m.CurrentField()
		if field == "" {
			return m, nil
		}
		if !m.table.State().FiltersVisible {
			m.table.ToggleFilters()
		}
		m.mode = modeFilter
		m.input.Placeholder = cfg.Columns[m.col].Label
		m.input.SetValue(m.table.State().Filter(field))
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "s":
		if field := m.CurrentField(); field != "" {
			m.table.ToggleSort(field)
		}
	case "]", "pgdown":
		m.table.NextPage()
		m.cursor = 0
	case "[", "pgup":
		m.table.PrevPage()
		m.cursor = 0
	case "r":
		m.table.SetRowsPerPage(nextRowsPerPage(m.table.State().RowsPerPage))
		m.cursor = 0
	case "g":
		m.cursor = 0
	case "G":
		m.cursor = max(0, len(m.table.View().Rows)-1)
	case "enter":
		rec, ok := m.CurrentRecord()
		if !ok || !m.rowClick {
			return m, nil
		}
		if m.table.ClickRow(rec) {
			return m, func() tea.Msg { return RowClickedMsg{Record: rec} }
		}
	case "e":
		if rec, ok := m.CurrentRecord(); ok && cfg.Actions != nil {
			return m, func() tea.Msg { return EditRequestedMsg{Record: rec} }
		}
	case "d":
		if rec, ok := m.CurrentRecord(); ok && cfg.Actions != nil {
			return m, func() tea.Msg { return DeleteRequestedMsg{Record: rec} }
		}
	case "x":
		if cfg.Export == nil {
			return m, nil
		}
		snapshot := tableview.New(cfg, m.table.Records())
		title := cfg.Title
		return m, func() tea.Msg {
			return ExportDoneMsg{Title: title, Err: snapshot.Export()}
		}
	case "u":
		if m.upload {
			return m, func() tea.Msg { return UploadRequestedMsg{} }
		}
	}
	m.clampCursor()
	return m, nil
}

func (m *DataTableModel) clampCursor() {
	n := len(m.table.View().Rows)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func nextRowsPerPage(current int) int {
	opts := tableview.RowsPerPageOptions
	for i, n := range opts {
		if n == current {
			return opts[(i+1)%len(opts)]
		}
	}
	return tableview.DefaultRowsPerPage
}

// View renders the table.
func (m DataTableModel) View() string {
	borderStyle := UnfocusedBorder
	if m.focused {
		borderStyle = FocusedBorder
	}
	innerW := m.width - 2
	if innerW < 10 {
		innerW = 10
	}
	innerH := m.height - 2
	if innerH < 3 {
		innerH = 3
	}

	content := m.render(innerW)
	return borderStyle.Width(innerW).Height(innerH).MaxHeight(innerH + 2).Render(content)
}

func (m DataTableModel) render(w int) string {
	cfg := m.table.Config()
	st := m.table.State()
	r := m.table.Render()
	anyPending := false

	var b strings.Builder

	if cfg.Title != "" {
		b.WriteString(HeaderStyle.Render(cfg.Title))
		b.WriteString(DimText.Render(fmt.Sprintf("  %d records", r.Total)))
		b.WriteString("\n")
	}

	if m.mode == modeSearch || st.Search != "" {
		line := SearchLabel.Render("/")
		if m.mode == modeSearch {
			line += m.input.View()
		} else {
			line += SearchInput.Render(st.Search)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	widths := m.columnWidths(r)

	// Header
	headers := make([]string, 0, len(r.Headers))
	for i, h := range r.Headers {
		label := h
		style := HeaderStyle
		if ci := i - 1; ci >= 0 && ci < len(cfg.Columns) {
			if st.Sort != nil && st.Sort.Field == cfg.Columns[ci].Field {
				if st.Sort.Direction == tableview.Descending {
					label += " ▼"
				} else {
					label += " ▲"
				}
			}
			if ci == m.col && m.focused {
				style = HeaderActiveStyle
			}
		}
		headers = append(headers, style.Width(widths[i]).Render(truncate(label, widths[i])))
	}
	b.WriteString(strings.Join(headers, " │ "))
	b.WriteString("\n")

	// Filter row
	if st.FiltersVisible {
		cells := make([]string, 0, len(r.Headers))
		for i := range r.Headers {
			text := ""
			if ci := i - 1; ci >= 0 && ci < len(cfg.Columns) {
				field := cfg.Columns[ci].Field
				text = st.Filter(field)
				if m.mode == modeFilter && ci == m.col {
					text = m.input.View()
				} else if text == "" {
					text = "·"
				}
			}
			cells = append(cells, FilterCell.Width(widths[i]).Render(truncate(text, widths[i])))
		}
		b.WriteString(strings.Join(cells, " │ "))
		b.WriteString("\n")
	}

	sep := make([]string, len(widths))
	for i, cw := range widths {
		sep[i] = strings.Repeat("─", cw)
	}
	b.WriteString(DimText.Render(strings.Join(sep, "─┼─")))
	b.WriteString("\n")

	if r.Placeholder != "" {
		total := 0
		for _, cw := range widths {
			total += cw
		}
		total += 3 * (len(widths) - 1)
		b.WriteString(DimText.Width(min(total, w)).Align(lipgloss.Center).Render(r.Placeholder))
		b.WriteString("\n")
	} else {
		for ri, row := range r.Rows {
			cells := make([]string, 0, len(r.Headers))
			selected := ri == m.cursor && m.focused
			number := strconv.Itoa(row.Number)
			base := CellNormal
			if m.isPending(row.Record) {
				number += pendingMark
				anyPending = true
				base = PendingText
			}
			if selected {
				base = CellSelected
			}
			cells = append(cells, base.Width(widths[0]).Render(number))
			for ci, cell := range row.Cells {
				cw := widths[ci+1]
				text := truncate(cell, cw)
				if st.Search != "" && !selected {
					cells = append(cells, lipgloss.NewStyle().Width(cw).Render(HighlightMatches(text, st.Search, CellNormal, MatchText)))
				} else {
					cells = append(cells, base.Width(cw).Render(text))
				}
			}
			if cfg.Actions != nil {
				cw := widths[len(widths)-1]
				cells = append(cells, base.Width(cw).Render(truncate(row.Action, cw)))
			}
			b.WriteString(strings.Join(cells, " │ "))
			b.WriteString("\n")
		}
	}

	prev, next := DimText.Render("‹ Prev"), DimText.Render("Next ›")
	if r.HasPrev {
		prev = AccentText.Render("‹ Prev")
	}
	if r.HasNext {
		next = AccentText.Render("Next ›")
	}
	footer := fmt.Sprintf("%s  %s  %s   Rows per page: %d", prev, r.PageLabel(), next, st.RowsPerPage)
	if anyPending {
		footer += PendingText.Render("   " + pendingMark + " saving")
	}
	b.WriteString(footer)
	return b.String()
}

func (m DataTableModel) isPending(r tableview.Record) bool {
	return m.pending != nil && m.pending(r)
}

func (m DataTableModel) columnWidths(r tableview.Rendered) []int {
	widths := make([]int, len(r.Headers))
	for i, h := range r.Headers {
		widths[i] = max(minColWidth, lipgloss.Width(h)+2)
	}
	for _, row := range r.Rows {
		widths[0] = max(widths[0], len(strconv.Itoa(row.Number))+len(pendingMark))
		for ci, cell := range row.Cells {
			widths[ci+1] = max(widths[ci+1], lipgloss.Width(cell))
		}
		if len(r.Headers) > len(row.Cells)+1 {
			last := len(widths) - 1
			widths[last] = max(widths[last], lipgloss.Width(row.Action))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}
	return widths
}
