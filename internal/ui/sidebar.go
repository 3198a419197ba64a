package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Page identifies a sidebar destination.
type Page int

const (
	PageHome Page = iota
	PageStudents
	PageSettings
	PageProfile
)

// MenuItem is one sidebar entry.
type MenuItem struct {
	Page  Page
	Label string
	Icon  string
}

// DefaultMenu is the console navigation.
var DefaultMenu = []MenuItem{
	{Page: PageHome, Label: "Home", Icon: "⌂"},
	{Page: PageStudents, Label: "Students data", Icon: "☰"},
	{Page: PageSettings, Label: "Settings", Icon: "⚙"},
	{Page: PageProfile, Label: "Profile", Icon: "☺"},
}

// PageSelectedMsg is sent when a menu item is activated.
type PageSelectedMsg struct {
	Page Page
}

// CollapsedWidth is the sidebar width when only icons are shown.
const CollapsedWidth = 5

// SidebarModel is the navigation menu.
type SidebarModel struct {
	items     []MenuItem
	cursor    int
	selected  Page
	focused   bool
	collapsed bool
	jump      string
	width     int
	height    int
}

// NewSidebarModel creates a new sidebar over items.
func NewSidebarModel(items []MenuItem) SidebarModel {
	return SidebarModel{items: items}
}

// SetFocused sets the focus state.
func (m *SidebarModel) SetFocused(f bool) {
	m.focused = f
	if !f {
		m.jump = ""
	}
}

// Focused returns the focus state.
func (m SidebarModel) Focused() bool {
	return m.focused
}

// SetSize sets the sidebar dimensions.
func (m *SidebarModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Collapsed reports whether only icons are shown.
func (m SidebarModel) Collapsed() bool {
	return m.collapsed
}

// ToggleCollapsed switches between the full and the icon-only menu.
func (m *SidebarModel) ToggleCollapsed() {
	m.collapsed = !m.collapsed
}

// Selected returns the active page.
func (m SidebarModel) Selected() Page {
	return m.selected
}

// Select marks p active without emitting a message.
func (m *SidebarModel) Select(p Page) {
	m.selected = p
	for i, it := range m.items {
		if it.Page == p {
			m.cursor = i
		}
	}
}

// Init satisfies the tea.Model interface.
func (m SidebarModel) Init() tea.Cmd {
	return nil
}

// Update handles key events. Typed letters jump to the first item whose
// label fuzzy-matches them.
func (m SidebarModel) Update(msg tea.Msg) (SidebarModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		m.jump = ""
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.jump = ""
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "esc":
		m.jump = ""
	case "enter":
		m.jump = ""
		if len(m.items) == 0 {
			return m, nil
		}
		m.selected = m.items[m.cursor].Page
		page := m.selected
		return m, func() tea.Msg {
			return PageSelectedMsg{Page: page}
		}
	default:
		if keyMsg.Type == tea.KeyRunes {
			m.jump += string(keyMsg.Runes)
			if i := m.match(m.jump); i >= 0 {
				m.cursor = i
			} else {
				m.jump = string(keyMsg.Runes)
				if i := m.match(m.jump); i >= 0 {
					m.cursor = i
				}
			}
		}
	}
	return m, nil
}

func (m SidebarModel) match(query string) int {
	for i, it := range m.items {
		if fuzzy.MatchFold(query, it.Label) {
			return i
		}
	}
	return -1
}

// Width returns the rendered width for the current collapse state.
func (m SidebarModel) Width() int {
	if m.collapsed {
		return CollapsedWidth
	}
	return m.width
}

// View renders the sidebar.
func (m SidebarModel) View() string {
	borderStyle := UnfocusedBorder
	if m.focused {
		borderStyle = FocusedBorder
	}

	innerW := m.Width() - 2
	if innerW < 3 {
		innerW = 3
	}
	innerH := m.height - 2
	if innerH < 1 {
		innerH = 1
	}

	var b strings.Builder
	if !m.collapsed {
		b.WriteString(HeaderStyle.Render("Menu"))
		b.WriteString("\n")
	}

	for i, it := range m.items {
		label := it.Icon
		if !m.collapsed {
			label = truncate(it.Icon+" "+it.Label, innerW-1)
		}
		var line string
		switch {
		case i == m.cursor && m.focused:
			line = SidebarCursorItem.Width(innerW).Render(label)
		case it.Page == m.selected:
			line = SidebarActiveItem.Width(innerW).Render(label)
		default:
			line = SidebarItem.Width(innerW).Render(label)
		}
		b.WriteString(line)
		if i < len(m.items)-1 {
			b.WriteString("\n")
		}
	}

	content := lipgloss.NewStyle().Width(innerW).Height(innerH).Render(b.String())
	return borderStyle.Width(innerW).Height(innerH).Render(content)
}
