package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MessageType represents the type of a toast.
type MessageType int

const (
	MsgInfo MessageType = iota
	MsgSuccess
	MsgWarn
	MsgError
)

// ToastTTL is how long a toast stays on screen.
var ToastTTL = 4 * time.Second

// ToastExpiredMsg clears toast ID once its TTL has passed.
type ToastExpiredMsg struct {
	ID int
}

// StatusBarModel is the context-aware status bar at the bottom. It shows
// the latest toast over the keybinding hints.
type StatusBarModel struct {
	message     string
	messageType MessageType
	toastID     int
	hints       string
	right       string
	width       int
}

// NewStatusBarModel creates a new status bar.
func NewStatusBarModel() StatusBarModel {
	return StatusBarModel{}
}

// SetWidth sets the status bar width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// SetHints sets the keybinding hints shown when no toast is up.
func (m *StatusBarModel) SetHints(hints string) {
	m.hints = hints
}

// SetRight sets the right-aligned summary, e.g. pending operations.
func (m *StatusBarModel) SetRight(s string) {
	m.right = s
}

// Toast shows msg and returns the command that expires it.
func (m *StatusBarModel) Toast(msg string, t MessageType) tea.Cmd {
	m.toastID++
	m.message = msg
	m.messageType = t
	id := m.toastID
	return tea.Tick(ToastTTL, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// Message returns the current toast text and type.
func (m StatusBarModel) Message() (string, MessageType) {
	return m.message, m.messageType
}

// Update clears the toast when its expiry arrives. A newer toast is kept.
func (m StatusBarModel) Update(msg tea.Msg) StatusBarModel {
	if e, ok := msg.(ToastExpiredMsg); ok && e.ID == m.toastID {
		m.message = ""
	}
	return m
}

// View renders the status bar.
func (m StatusBarModel) View() string {
	left := m.hints
	if m.message != "" {
		var msgStyle lipgloss.Style
		switch m.messageType {
		case MsgError:
			msgStyle = StatusErrorStyle
		case MsgWarn:
			msgStyle = StatusWarnStyle
		case MsgSuccess:
			msgStyle = StatusSuccessStyle
		default:
			msgStyle = StatusBarStyle
		}
		left = msgStyle.Render(m.message)
	}

	w := m.width
	if w < 20 {
		w = 20
	}
	gap := w - lipgloss.Width(left) - lipgloss.Width(m.right) - 2
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + m.right
	return StatusBarStyle.Width(w).Render(line)
}
