package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"coe-console/internal/app"
	"coe-console/internal/client"
	"coe-console/internal/config"
	"coe-console/internal/logging"
	"coe-console/internal/ui"
)

// connectTimeout bounds the reachability check done before saving a backend.
const connectTimeout = 10 * time.Second

var titleStyle = lipgloss.NewStyle().
	Foreground(ui.ColorAccent).
	Bold(true).
	MarginBottom(1)

type connectResultMsg struct {
	client *client.Client
	err    error
}

// dialBackend builds a client for baseURL and checks that the backend answers.
func dialBackend(baseURL string) tea.Cmd {
	return func() tea.Msg {
		c, err := client.New(baseURL, nil)
		if err != nil {
			return connectResultMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if _, err := c.FetchDepartments(ctx); err != nil {
			return connectResultMsg{err: fmt.Errorf("backend not reachable: %w", err)}
		}
		return connectResultMsg{client: c}
	}
}

// ---------------------------------------------------------------------------
// pickerModel – choose from saved backends
// ---------------------------------------------------------------------------

type pickerModel struct {
	cfg        *config.Config
	cursor     int
	err        string
	connecting bool
	done       bool
	newConn    bool
	client     *client.Client
	backend    config.SavedBackend
}

func newPickerModel(cfg *config.Config) pickerModel {
	return pickerModel{cfg: cfg}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.connecting {
			return m, nil
		}

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.cfg.Backends)-1 {
				m.cursor++
			}
		case "n":
			m.done = true
			m.newConn = true
			return m, tea.Quit
		case "d", "x":
			if len(m.cfg.Backends) == 0 {
				return m, nil
			}
			m.cfg.Delete(m.cursor)
			if err := m.cfg.Save(); err != nil {
				m.err = err.Error()
			}
			if m.cursor >= len(m.cfg.Backends) && m.cursor > 0 {
				m.cursor--
			}
			if len(m.cfg.Backends) == 0 {
				m.done = true
				m.newConn = true
				return m, tea.Quit
			}
		case "enter":
			if len(m.cfg.Backends) == 0 {
				return m, nil
			}
			m.connecting = true
			m.err = ""
			m.backend = m.cfg.Backends[m.cursor]
			return m, dialBackend(m.backend.BaseURL)
		}

	case connectResultMsg:
		m.connecting = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.done = true
		m.client = msg.client
		return m, tea.Quit
	}

	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("COE Console - Saved Backends"))
	b.WriteString("\n\n")

	for i, be := range m.cfg.Backends {
		display := be.Name + ui.DimText.Render("  "+be.BaseURL)
		if i == m.cursor {
			b.WriteString(ui.AccentText.Bold(true).Render("  ▸ " + display))
		} else {
			b.WriteString("    " + display)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(ui.ErrorText.Render(fmt.Sprintf("  Connection failed: %s", m.err)))
		b.WriteString("\n\n")
	}

	if m.connecting {
		b.WriteString(ui.DimText.Render("  Connecting..."))
	} else {
		b.WriteString(ui.DimText.Render("  Enter to connect | n new backend | d delete | Ctrl+C quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// connectionModel – new backend form
// ---------------------------------------------------------------------------

// connPhase tracks whether we're entering the URL or naming the backend.
type connPhase int

const (
	phaseConnect connPhase = iota
	phaseName
)

type connectionModel struct {
	urlInput   textinput.Model
	nameInput  textinput.Model
	phase      connPhase
	err        string
	connecting bool
	done       bool
	client     *client.Client
	label      string
	cfg        *config.Config
}

func newConnectionModel(cfg *config.Config) connectionModel {
	urlInput := textinput.New()
	urlInput.Placeholder = "http://localhost:8080"
	urlInput.CharLimit = 512
	urlInput.Width = 60
	urlInput.Focus()

	nameInput := textinput.New()
	nameInput.Placeholder = "college-backend"
	nameInput.CharLimit = 128
	nameInput.Width = 40

	return connectionModel{
		urlInput:  urlInput,
		nameInput: nameInput,
		phase:     phaseConnect,
		cfg:       cfg,
	}
}

func (m connectionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m connectionModel) baseURL() string {
	u := strings.TrimSpace(m.urlInput.Value())
	if u == "" {
		u = m.urlInput.Placeholder
	}
	return u
}

func (m connectionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.phase == phaseName {
			return m.updateNamePhase(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			if m.connecting {
				return m, nil
			}
			m.connecting = true
			m.err = ""
			return m, dialBackend(m.baseURL())
		}

	case connectResultMsg:
		m.connecting = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.client = msg.client
		m.label = msg.client.BaseURL()
		m.phase = phaseName
		m.urlInput.Blur()
		m.nameInput.Focus()
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m connectionModel) updateNamePhase(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.client = nil
		return m, tea.Quit
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.err = "Backend name cannot be empty"
			return m, nil
		}
		m.cfg.Add(config.SavedBackend{Name: name, BaseURL: m.client.BaseURL()})
		if err := m.cfg.Save(); err != nil {
			logging.Log.WithError(err).Warn("save backend")
		}
		m.label = name
		m.done = true
		return m, tea.Quit
	case "esc":
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m connectionModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("COE Console - Connect to Backend"))
	b.WriteString("\n\n")

	if m.phase == phaseName {
		b.WriteString(ui.SuccessText.Render("  Connected successfully!"))
		b.WriteString("\n\n")
		b.WriteString(ui.AccentText.Render("  Save as"))
		b.WriteString("\n")
		b.WriteString("  " + m.nameInput.View())
		b.WriteString("\n\n")

		if m.err != "" {
			b.WriteString(ui.ErrorText.Render("  " + m.err))
			b.WriteString("\n\n")
		}

		b.WriteString(ui.DimText.Render("  Enter to save | Esc to skip"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(ui.AccentText.Render("  Backend URL"))
	b.WriteString("\n")
	b.WriteString("  " + m.urlInput.View())
	b.WriteString("\n\n")

	if m.err != "" {
		b.WriteString(ui.ErrorText.Render(fmt.Sprintf("  Connection failed: %s", m.err)))
		b.WriteString("\n\n")
	}

	if m.connecting {
		b.WriteString(ui.DimText.Render("  Connecting..."))
	} else {
		b.WriteString(ui.DimText.Render("  Press Enter to connect | Ctrl+C to quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// main
// ---------------------------------------------------------------------------

func runConsole(cfgPath, baseURL string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	log, err := logging.Init(logging.Config{
		Level:      cfg.Settings.LogLevel,
		File:       cfg.Settings.LogFile,
		MaxBackups: 3,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	log.WithField("profile", cfg.Path()).Info("console starting")

	var c *client.Client
	var label string

	if baseURL != "" {
		c, err = client.New(baseURL, nil)
		if err != nil {
			return err
		}
		label = c.BaseURL()
	}

	if c == nil && len(cfg.Backends) > 0 {
		p := tea.NewProgram(newPickerModel(cfg), tea.WithAltScreen())
		result, err := p.Run()
		if err != nil {
			return err
		}
		pm, ok := result.(pickerModel)
		if !ok || !pm.done {
			return nil
		}
		if !pm.newConn {
			c = pm.client
			label = pm.backend.Name
		}
	}

	if c == nil {
		p := tea.NewProgram(newConnectionModel(cfg), tea.WithAltScreen())
		result, err := p.Run()
		if err != nil {
			return err
		}
		cm, ok := result.(connectionModel)
		if !ok || !cm.done || cm.client == nil {
			return nil
		}
		c = cm.client
		label = cm.label
	}

	log.WithField("backend", c.BaseURL()).Info("connected")
	p := tea.NewProgram(app.New(c, cfg, label), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func main() {
	serve := pflag.Bool("serve", false, "run the REST backend instead of the console")
	memory := pflag.Bool("memory", false, "with --serve, keep data in memory instead of Postgres")
	addr := pflag.String("addr", "", "with --serve, listen address (overrides LISTEN_ADDR)")
	baseURL := pflag.String("url", "", "backend base URL; skips the saved-backend picker")
	cfgPath := pflag.String("config", "", "console profile file (default ~/.config/coe-console/console.json)")
	pflag.Parse()

	var err error
	if *serve {
		err = runServer(*memory, *addr)
	} else {
		err = runConsole(*cfgPath, *baseURL)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
