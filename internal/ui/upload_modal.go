package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"coe-console/internal/directory"
	"coe-console/internal/sheet"
)

// UploadFileName is the name the converted sheet is posted under.
const UploadFileName = "upload.csv"

// UploadSubmittedMsg carries the first sheet of the chosen workbook as CSV.
type UploadSubmittedMsg struct {
	Source string
	CSV    string
}

// UploadModalClosedMsg is sent when the dialog is dismissed.
type UploadModalClosedMsg struct{}

// SampleWrittenMsg reports the result of writing the upload template.
type SampleWrittenMsg struct {
	Path string
	Err  error
}

type uploadParsedMsg struct {
	path string
	csv  string
	err  error
}

// UploadModalModel asks for a workbook path, converts it and submits it.
// Malformed files are reported inline and never reach the backend. The
// dialog stays open until the host reports the backend's answer with Finish.
type UploadModalModel struct {
	visible     bool
	input       textinput.Model
	downloadDir string
	parsing     bool
	submitting  bool
	err         string
}

func NewUploadModalModel() UploadModalModel {
	ti := textinput.New()
	ti.Placeholder = "path/to/students.xlsx"
	ti.CharLimit = 512
	ti.Width = 50
	return UploadModalModel{input: ti}
}

// Open shows the dialog. downloadDir receives the sample template.
func (m *UploadModalModel) Open(downloadDir string) tea.Cmd {
	m.visible = true
	m.downloadDir = downloadDir
	m.parsing = false
	m.submitting = false
	m.err = ""
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *UploadModalModel) Close() {
	m.visible = false
	m.parsing = false
	m.submitting = false
	m.err = ""
	m.input.Blur()
}

// Finish ends a submission. The dialog closes on success; on failure it
// stays open with the error shown inline so the file can be retried.
func (m *UploadModalModel) Finish(err error) {
	if !m.visible || !m.submitting {
		return
	}
	if err == nil {
		m.Close()
		return
	}
	m.submitting = false
	m.err = "Upload failed: " + err.Error()
}

// Submitting reports whether an upload is waiting for the backend.
func (m UploadModalModel) Submitting() bool {
	return m.submitting
}

func (m UploadModalModel) Visible() bool {
	return m.visible
}

// Err returns the inline error.
func (m UploadModalModel) Err() string {
	return m.err
}

func (m UploadModalModel) Update(msg tea.Msg) (UploadModalModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case uploadParsedMsg:
		m.parsing = false
		if msg.err != nil {
			m.err = uploadErrorText(msg.err)
			return m, nil
		}
		m.submitting = true
		src := msg.path
		csv := msg.csv
		return m, func() tea.Msg { return UploadSubmittedMsg{Source: src, CSV: csv} }

	case tea.KeyMsg:
		if m.parsing || m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			m.Close()
			return m, func() tea.Msg { return UploadModalClosedMsg{} }
		case "ctrl+t":
			dir := m.downloadDir
			return m, func() tea.Msg {
				path, err := sheet.WriteSample(dir)
				return SampleWrittenMsg{Path: path, Err: err}
			}
		case "enter":
			path := expandHome(strings.TrimSpace(m.input.Value()))
			if path == "" {
				m.err = "Please select a file to upload."
				return m, nil
			}
			m.parsing = true
			m.err = ""
			return m, func() tea.Msg {
				csv, err := sheet.ReadFile(path)
				return uploadParsedMsg{path: path, csv: csv, err: err}
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func uploadErrorText(err error) string {
	switch {
	case errors.Is(err, sheet.ErrInvalidExtension):
		return "Invalid file format. Please upload an .xlsx file."
	case errors.Is(err, sheet.ErrEmptySheet):
		return "The first sheet of the workbook is empty."
	case errors.Is(err, os.ErrNotExist):
		return "File not found."
	case errors.Is(err, sheet.ErrUnreadable):
		return "Error reading or converting the file."
	default:
		return err.Error()
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (m UploadModalModel) View() string {
	if !m.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Upload Student Data"))
	b.WriteString("\n")
	b.WriteString("Workbook (.xlsx)\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(DimText.Render("Columns: " + strings.Join(directory.UploadHeader, ", ")))
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(ErrorText.Render(m.err))
		b.WriteString("\n")
	}
	switch {
	case m.parsing:
		b.WriteString("\n")
		b.WriteString(DimText.Render("Reading workbook..."))
		b.WriteString("\n")
	case m.submitting:
		b.WriteString("\n")
		b.WriteString(DimText.Render("Uploading..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(DimText.Render("Enter upload | Ctrl+T save sample template | Esc cancel"))
	return ModalBorder.Render(b.String())
}
