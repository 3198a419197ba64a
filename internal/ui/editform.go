package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"coe-console/internal/directory"
)

// EditSubmittedMsg carries the edited user.
type EditSubmittedMsg struct {
	User directory.User
}

// EditCancelledMsg is sent when the form is dismissed.
type EditCancelledMsg struct{}

const (
	editName = iota
	editEmail
	editDept
	editYear
	editDegree
	editFieldCount
)

var editLabels = [editFieldCount]string{"Name", "Email", "Dept", "Year", "Degree"}

// maxSuggestions bounds the department type-ahead list.
const maxSuggestions = 5

// EditFormModel edits one user inline. Department is chosen by fuzzy
// type-ahead over the active departments, degree by cycling the fixed set.
type EditFormModel struct {
	visible bool
	user    directory.User
	depts   []directory.Department

	inputs      [editFieldCount]textinput.Model
	cursor      int
	suggestions []directory.Department
	suggestion  int
	dept        *directory.Department
	degree      int
	err         string
	width       int
}

func NewEditFormModel() EditFormModel {
	var inputs [editFieldCount]textinput.Model
	for i := range inputs {
		t := textinput.New()
		t.CharLimit = 128
		t.Width = 40
		inputs[i] = t
	}
	inputs[editDept].Placeholder = "type to search departments"
	return EditFormModel{inputs: inputs}
}

// Open shows the form for u.
func (m *EditFormModel) Open(u directory.User, depts []directory.Department) tea.Cmd {
	m.visible = true
	m.user = u
	m.depts = depts
	m.err = ""
	m.cursor = editName

	m.inputs[editName].SetValue(u.Name)
	m.inputs[editEmail].SetValue(u.Email)
	m.inputs[editYear].SetValue(u.Year)

	m.dept = nil
	m.inputs[editDept].SetValue("")
	if d, ok := directory.DepartmentByID(depts, u.Dept); ok {
		m.dept = &d
		m.inputs[editDept].SetValue(d.DeptShort)
	}
	m.suggestions = nil
	m.suggestion = 0

	m.degree = 0
	norm := directory.NormalizeDegree(u.Degree)
	for i, d := range directory.Degrees {
		if d == norm {
			m.degree = i
		}
	}

	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m.inputs[editName].Focus()
}

func (m *EditFormModel) Close() {
	m.visible = false
	m.err = ""
}

func (m EditFormModel) Visible() bool {
	return m.visible
}

func (m *EditFormModel) SetWidth(w int) {
	m.width = w
}

// Degree returns the selected degree.
func (m EditFormModel) Degree() string {
	return directory.Degrees[m.degree]
}

// Department returns the chosen department, if any.
func (m EditFormModel) Department() (directory.Department, bool) {
	if m.dept == nil {
		return directory.Department{}, false
	}
	return *m.dept, true
}

// Suggestions returns the current department matches.
func (m EditFormModel) Suggestions() []directory.Department {
	return m.suggestions
}

func (m EditFormModel) Update(msg tea.Msg) (EditFormModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.inputs[m.cursor], cmd = m.inputs[m.cursor].Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "esc":
		m.Close()
		return m, func() tea.Msg { return EditCancelledMsg{} }
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		if m.cursor == editDept && keyMsg.String() == "down" && len(m.suggestions) > 0 {
			m.suggestion = (m.suggestion + 1) % len(m.suggestions)
			return m, nil
		}
		return m.move(1)
	case "shift+tab", "up":
		if m.cursor == editDept && keyMsg.String() == "up" && len(m.suggestions) > 0 {
			m.suggestion = (m.suggestion + len(m.suggestions) - 1) % len(m.suggestions)
			return m, nil
		}
		return m.move(-1)
	case "enter":
		if m.cursor == editDept && len(m.suggestions) > 0 {
			m.pickSuggestion()
			return m.move(1)
		}
		if m.cursor == editFieldCount-1 {
			return m.submit()
		}
		return m.move(1)
	}

	if m.cursor == editDegree {
		switch keyMsg.String() {
		case "left", "h":
			m.degree = (m.degree + len(directory.Degrees) - 1) % len(directory.Degrees)
		case "right", "l", " ":
			m.degree = (m.degree + 1) % len(directory.Degrees)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.cursor], cmd = m.inputs[m.cursor].Update(keyMsg)
	if m.cursor == editDept {
		m.dept = nil
		m.suggestions = m.matchDepartments(m.inputs[editDept].Value())
		m.suggestion = 0
		if d, ok := m.exactDepartment(m.inputs[editDept].Value()); ok {
			m.dept = &d
		}
	}
	return m, cmd
}

func (m EditFormModel) move(delta int) (EditFormModel, tea.Cmd) {
	if m.cursor == editDept {
		if len(m.suggestions) > 0 && m.dept == nil {
			m.pickSuggestion()
		}
		m.suggestions = nil
	}
	m.inputs[m.cursor].Blur()
	m.cursor = (m.cursor + delta + editFieldCount) % editFieldCount
	if m.cursor == editDegree {
		return m, nil
	}
	return m, m.inputs[m.cursor].Focus()
}

func (m *EditFormModel) pickSuggestion() {
	d := m.suggestions[m.suggestion]
	m.dept = &d
	m.inputs[editDept].SetValue(d.DeptShort)
	m.inputs[editDept].CursorEnd()
	m.suggestions = nil
	m.suggestion = 0
}

// matchDepartments ranks departments whose short or full name fuzzy-matches
// query, best first.
func (m EditFormModel) matchDepartments(query string) []directory.Department {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	targets := make([]string, len(m.depts))
	for i, d := range m.depts {
		targets[i] = d.DeptShort + " " + d.DeptName
	}
	ranks := fuzzy.RankFindFold(query, targets)
	sort.Sort(ranks)

	out := make([]directory.Department, 0, min(len(ranks), maxSuggestions))
	for _, r := range ranks {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.depts[r.OriginalIndex])
	}
	return out
}

func (m EditFormModel) exactDepartment(text string) (directory.Department, bool) {
	text = strings.TrimSpace(text)
	for _, d := range m.depts {
		if strings.EqualFold(d.DeptShort, text) {
			return d, true
		}
	}
	return directory.Department{}, false
}

func (m EditFormModel) submit() (EditFormModel, tea.Cmd) {
	if m.dept == nil {
		if d, ok := m.exactDepartment(m.inputs[editDept].Value()); ok {
			m.dept = &d
		}
	}

	name := strings.TrimSpace(m.inputs[editName].Value())
	email := strings.TrimSpace(m.inputs[editEmail].Value())
	switch {
	case name == "":
		m.err = "Name cannot be empty"
		return m, nil
	case email == "" || !strings.Contains(email, "@"):
		m.err = "Enter a valid email"
		return m, nil
	case m.dept == nil:
		m.err = "Select a department"
		return m, nil
	}

	u := m.user
	u.Name = name
	u.Email = email
	u.Year = strings.TrimSpace(m.inputs[editYear].Value())
	u.Dept = m.dept.ID
	u.DeptName = m.dept.DeptShort
	u.Degree = m.Degree()

	m.Close()
	return m, func() tea.Msg { return EditSubmittedMsg{User: u} }
}

func (m EditFormModel) View() string {
	if !m.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Edit %s", m.user.ID)))
	b.WriteString("\n")

	for i := 0; i < editFieldCount; i++ {
		label := fmt.Sprintf("%-7s", editLabels[i])
		if i == m.cursor {
			b.WriteString(AccentText.Render("▸ " + label))
		} else {
			b.WriteString("  " + label)
		}

		switch i {
		case editDegree:
			var opts []string
			for di, d := range directory.Degrees {
				if di == m.degree {
					opts = append(opts, AccentText.Bold(true).Render("["+d+"]"))
				} else {
					opts = append(opts, DimText.Render(" "+d+" "))
				}
			}
			b.WriteString(strings.Join(opts, " "))
		default:
			b.WriteString(m.inputs[i].View())
			if i == editDept && m.dept != nil {
				b.WriteString(DimText.Render("  " + m.dept.DeptName))
			}
		}
		b.WriteString("\n")

		if i == editDept && m.cursor == editDept {
			for si, s := range m.suggestions {
				line := fmt.Sprintf("    %s  %s", s.DeptShort, s.DeptName)
				if si == m.suggestion {
					b.WriteString(CellSelected.Render(line))
				} else {
					b.WriteString(DimText.Render(line))
				}
				b.WriteString("\n")
			}
		}
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(ErrorText.Render(m.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(DimText.Render("Tab next | ←/→ degree | Ctrl+S update | Esc cancel"))

	return ModalBorder.Render(b.String())
}
