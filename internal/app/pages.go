package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"coe-console/internal/ui"
)

func (m Model) contentView() string {
	switch m.page {
	case ui.PageHome:
		return m.depts.View()
	case ui.PageStudents:
		return m.studentsView()
	case ui.PageSettings:
		return m.panel(m.settingsLines())
	default:
		return m.panel(m.profileLines())
	}
}

func (m Model) studentsView() string {
	var parts []string
	switch {
	case m.loadErr != "":
		parts = append(parts, ui.ErrorText.Render("Failed to fetch users: "+m.loadErr))
	case m.loadingUsers && len(m.users.Table().Records()) == 0:
		parts = append(parts, ui.DimText.Render("Loading users..."))
	}
	parts = append(parts, m.users.View())

	if len(m.uploadErrs) > 0 {
		var b strings.Builder
		b.WriteString(ui.WarnText.Bold(true).Render(fmt.Sprintf("%d rows skipped in the last upload", len(m.uploadErrs))))
		for i, e := range m.uploadErrs {
			if i == maxShownErrs {
				b.WriteString("\n" + ui.DimText.Render(fmt.Sprintf("... and %d more", len(m.uploadErrs)-maxShownErrs)))
				break
			}
			b.WriteString("\n" + ui.WarnText.Render(e))
		}
		parts = append(parts, b.String())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) settingsLines() []string {
	s := m.cfg.Settings
	return []string{
		ui.TitleStyle.Render("Settings"),
		fmt.Sprintf("Rows per page   ‹ %d ›", s.RowsPerPage),
		fmt.Sprintf("Download dir    %s", s.DownloadDir),
		fmt.Sprintf("Log file        %s (%s)", s.LogFile, s.LogLevel),
		fmt.Sprintf("Profile         %s", m.cfg.Path()),
	}
}

func (m Model) profileLines() []string {
	lines := []string{
		ui.TitleStyle.Render("Profile"),
		fmt.Sprintf("Backend         %s", m.backend),
		fmt.Sprintf("Users loaded    %d", len(m.users.Table().Records())),
		fmt.Sprintf("Departments     %d", len(m.departments)),
	}
	if len(m.cfg.Backends) > 0 {
		lines = append(lines, "", ui.SubHeaderStyle.Render("Saved backends"))
		for _, b := range m.cfg.Backends {
			lines = append(lines, fmt.Sprintf("  %-14s %s", b.Name, b.BaseURL))
		}
	}
	return lines
}

func (m Model) panel(lines []string) string {
	style := ui.UnfocusedBorder
	if m.activePane == ContentPane {
		style = ui.FocusedBorder
	}
	w := max(m.width-m.sidebar.Width()-2, 10)
	h := max(m.height-4, 3)
	return style.Width(w).Height(h).Render(strings.Join(lines, "\n"))
}
