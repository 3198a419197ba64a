package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmedMsg is sent when the user accepts a confirmation. Payload is
// whatever was passed to Ask.
type ConfirmedMsg struct {
	Payload any
}

// ConfirmModel is a yes/no prompt.
type ConfirmModel struct {
	visible  bool
	question string
	payload  any
}

// Ask shows question; payload is returned in ConfirmedMsg.
func (m *ConfirmModel) Ask(question string, payload any) {
	m.visible = true
	m.question = question
	m.payload = payload
}

func (m ConfirmModel) Visible() bool {
	return m.visible
}

func (m ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !m.visible || !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y", "enter":
		m.visible = false
		payload := m.payload
		m.payload = nil
		return m, func() tea.Msg { return ConfirmedMsg{Payload: payload} }
	case "n", "N", "esc", "q":
		m.visible = false
		m.payload = nil
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if !m.visible {
		return ""
	}
	var b strings.Builder
	b.WriteString(WarnText.Bold(true).Render(m.question))
	b.WriteString("\n\n")
	b.WriteString(DimText.Render("y confirm | n cancel"))
	return ModalBorder.Render(b.String())
}
