package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorAccent  = lipgloss.Color("#4ecca3")
	ColorDanger  = lipgloss.Color("#e94560")
	ColorWarn    = lipgloss.Color("#f0a500")
	ColorDim     = lipgloss.Color("#555555")
	ColorSuccess = lipgloss.Color("#4ecca3")
	ColorError   = lipgloss.Color("#e94560")
	ColorInfo    = lipgloss.Color("#61afef")
)

// Border styles
var (
	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent)

	UnfocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim)

	ModalBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(1, 2)
)

// Text styles
var (
	AccentText  = lipgloss.NewStyle().Foreground(ColorAccent)
	DimText     = lipgloss.NewStyle().Foreground(ColorDim)
	ErrorText   = lipgloss.NewStyle().Foreground(ColorError)
	WarnText    = lipgloss.NewStyle().Foreground(ColorWarn)
	SuccessText = lipgloss.NewStyle().Foreground(ColorSuccess)
	PendingText = lipgloss.NewStyle().Foreground(ColorWarn).Italic(true)
	MatchText   = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true).Underline(true)
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	HeaderActiveStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				Underline(true)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			MarginBottom(1)
)

// Table cell styles
var (
	CellNormal   = lipgloss.NewStyle()
	CellSelected = lipgloss.NewStyle().Reverse(true)
	FilterCell   = lipgloss.NewStyle().Foreground(ColorInfo).Italic(true)
)

// Status bar
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#cccccc")).
			Padding(0, 1)

	StatusErrorStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#333333")).
				Foreground(ColorError).
				Padding(0, 1)

	StatusWarnStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(ColorWarn).
			Padding(0, 1)

	StatusSuccessStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#333333")).
				Foreground(ColorSuccess).
				Padding(0, 1)
)

// Sidebar styles
var (
	SidebarItem       = lipgloss.NewStyle().PaddingLeft(1)
	SidebarActiveItem = lipgloss.NewStyle().
				PaddingLeft(1).
				Foreground(ColorAccent).
				Bold(true)
	SidebarCursorItem = lipgloss.NewStyle().
				PaddingLeft(1).
				Reverse(true)
)

// Search styles
var (
	SearchInput = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)
	SearchLabel = lipgloss.NewStyle().
			Foreground(ColorAccent)
)

// Top bar style
var TopBarStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("#333333")).
	Foreground(lipgloss.Color("#cccccc")).
	Padding(0, 1)
