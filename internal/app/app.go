package app

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"coe-console/internal/config"
	"coe-console/internal/directory"
	"coe-console/internal/editor"
	"coe-console/internal/logging"
	"coe-console/internal/sheet"
	"coe-console/internal/tableview"
	"coe-console/internal/ui"
)

// Pane represents which pane is focused.
type Pane int

const (
	SidebarPane Pane = iota
	ContentPane
)

const (
	sidebarWidth = 24
	usersTitle   = "All Users"
	deptsTitle   = "Departments"
	maxShownErrs = 5
)

// DataSource is everything the console needs from a backend.
type DataSource interface {
	FetchUsers(ctx context.Context) ([]directory.User, error)
	FetchDepartments(ctx context.Context) ([]directory.Department, error)
	UpdateUser(ctx context.Context, u directory.User) error
	DeleteUser(ctx context.Context, id string) error
	UploadUsers(ctx context.Context, fileName, csv string) (directory.UploadResult, error)
}

// Model is the root Bubble Tea model.
type Model struct {
	activePane Pane
	page       ui.Page
	sidebar    ui.SidebarModel
	users      ui.DataTableModel
	depts      ui.DataTableModel
	statusbar  ui.StatusBarModel
	editForm   ui.EditFormModel
	upload     ui.UploadModalModel
	confirm    ui.ConfirmModel

	src         DataSource
	cfg         *config.Config
	backend     string
	changes     *editor.ChangeTracker
	departments []directory.Department

	loadingUsers bool
	loadErr      string
	uploadErrs   []string

	width  int
	height int
}

// New creates the root model. backend labels the data source in the top bar.
func New(src DataSource, cfg *config.Config, backend string) Model {
	dir := cfg.Settings.DownloadDir
	changes := editor.NewChangeTracker(directory.FieldID)

	users := ui.NewDataTableModel(tableview.Config{
		Title:   usersTitle,
		Columns: directory.UserColumns,
		Actions: func(tableview.Record) string { return "[e]dit [d]elete" },
		Export:  exporter(dir, directory.UserFields),
	}, ui.TableOptions{
		Upload: true,
		Pending: func(r tableview.Record) bool {
			return changes.Pending(r.Text(directory.FieldID))
		},
	})
	users.SetRowsPerPage(cfg.Settings.RowsPerPage)

	depts := ui.NewDataTableModel(tableview.Config{
		Title:   deptsTitle,
		Columns: directory.DepartmentColumns,
		Export:  exporter(dir, []string{directory.FieldID, directory.FieldDeptShort, directory.FieldDeptFullName}),
	}, ui.TableOptions{RowClick: true})
	depts.SetRowsPerPage(cfg.Settings.RowsPerPage)

	sidebar := ui.NewSidebarModel(ui.DefaultMenu)
	sidebar.SetFocused(true)
	sidebar.Select(ui.PageHome)

	m := Model{
		activePane:   SidebarPane,
		page:         ui.PageHome,
		sidebar:      sidebar,
		users:        users,
		depts:        depts,
		statusbar:    ui.NewStatusBarModel(),
		editForm:     ui.NewEditFormModel(),
		upload:       ui.NewUploadModalModel(),
		src:          src,
		cfg:          cfg,
		backend:      backend,
		changes:      changes,
		loadingUsers: true,
	}
	m.refreshHints()
	return m
}

func exporter(dir string, headers []string) tableview.Exporter {
	return func(title string, records []tableview.Record) error {
		_, err := sheet.WriteFile(dir, records, sheet.Options{Title: title, Headers: headers})
		return err
	}
}

// Init loads users and departments.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchUsers(), m.fetchDepartments())
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.refreshHints()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case ui.ToastExpiredMsg:
		m.statusbar = m.statusbar.Update(msg)
		return m, nil

	case usersLoadedMsg:
		m.loadingUsers = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			logging.Log.WithError(msg.err).Error("fetch users")
			return m, m.statusbar.Toast("Failed to fetch users: "+msg.err.Error(), ui.MsgError)
		}
		m.loadErr = ""
		m.users.SetRecords(directory.UserRecords(msg.users))
		logging.Log.WithField("count", len(msg.users)).Debug("users loaded")
		return m, nil

	case departmentsLoadedMsg:
		if msg.err != nil {
			logging.Log.WithError(msg.err).Error("fetch departments")
			return m, m.statusbar.Toast("Failed to fetch departments: "+msg.err.Error(), ui.MsgError)
		}
		m.departments = msg.depts
		m.depts.SetRecords(directory.DepartmentRecords(msg.depts))
		return m, nil

	case opResultMsg:
		return m.finishOp(msg)

	case undoResultMsg:
		if msg.err != nil {
			logging.Log.WithError(msg.err).WithField("id", msg.change.Key).Warn("undo failed")
			m.loadingUsers = true
			return m, tea.Batch(
				m.statusbar.Toast("Undo failed: "+msg.err.Error(), ui.MsgError),
				m.fetchUsers(),
			)
		}
		return m, m.statusbar.Toast(fmt.Sprintf("Undid %s of %s", msg.change.Type, msg.change.Key), ui.MsgSuccess)

	case uploadResultMsg:
		return m.finishUpload(msg)

	case settingsSavedMsg:
		if msg.err != nil {
			logging.Log.WithError(msg.err).Error("save settings")
			return m, m.statusbar.Toast("Failed to save settings: "+msg.err.Error(), ui.MsgError)
		}
		return m, m.statusbar.Toast("Settings saved", ui.MsgSuccess)

	case ui.PageSelectedMsg:
		m.showPage(msg.Page)
		return m, nil

	case ui.RowClickedMsg:
		short := msg.Record.Text(directory.FieldDeptShort)
		t := m.users.Table()
		t.SetColumnFilter(directory.FieldDeptName, short)
		if !t.State().FiltersVisible {
			t.ToggleFilters()
		}
		m.showPage(ui.PageStudents)
		return m, m.statusbar.Toast(fmt.Sprintf("Showing %s students", short), ui.MsgInfo)

	case ui.EditRequestedMsg:
		return m, m.editForm.Open(directory.UserFromRecord(msg.Record), m.departments)

	case ui.EditSubmittedMsg:
		return m.applyEdit(msg.User)

	case ui.DeleteRequestedMsg:
		id := msg.Record.Text(directory.FieldID)
		m.confirm.Ask(fmt.Sprintf("Delete %s (%s)?", msg.Record.Text(directory.FieldName), id), id)
		return m, nil

	case ui.ConfirmedMsg:
		if id, ok := msg.Payload.(string); ok {
			return m.applyDelete(id)
		}
		return m, nil

	case ui.UploadRequestedMsg:
		return m, m.upload.Open(m.cfg.Settings.DownloadDir)

	case ui.UploadSubmittedMsg:
		logging.Log.WithField("source", msg.Source).Info("uploading users")
		return m, tea.Batch(
			m.statusbar.Toast(fmt.Sprintf("Uploading %s...", filepath.Base(msg.Source)), ui.MsgInfo),
			m.uploadUsers(msg.CSV),
		)

	case ui.SampleWrittenMsg:
		if msg.Err != nil {
			return m, m.statusbar.Toast("Failed to save template: "+msg.Err.Error(), ui.MsgError)
		}
		return m, m.statusbar.Toast("Sample template saved to "+msg.Path, ui.MsgSuccess)

	case ui.ExportDoneMsg:
		if msg.Err != nil {
			logging.Log.WithError(msg.Err).Error("export")
			return m, m.statusbar.Toast("Download failed: "+msg.Err.Error(), ui.MsgError)
		}
		return m, m.statusbar.Toast(fmt.Sprintf("Downloaded %s.xlsx to %s", msg.Title, m.cfg.Settings.DownloadDir), ui.MsgSuccess)

	case ui.EditCancelledMsg, ui.UploadModalClosedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blinks and the like go to whatever owns the focused input.
	var cmd tea.Cmd
	switch {
	case m.editForm.Visible():
		m.editForm, cmd = m.editForm.Update(msg)
	case m.upload.Visible():
		m.upload, cmd = m.upload.Update(msg)
	default:
		if t := m.activeTable(); t != nil {
			*t, cmd = t.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch {
	case m.confirm.Visible():
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	case m.editForm.Visible():
		m.editForm, cmd = m.editForm.Update(msg)
		return m, cmd
	case m.upload.Visible():
		m.upload, cmd = m.upload.Update(msg)
		return m, cmd
	}

	typing := m.activePane == ContentPane && m.activeTable() != nil && m.activeTable().Typing()

	switch msg.String() {
	case "tab", "shift+tab":
		if !typing {
			if m.activePane == SidebarPane {
				m.focus(ContentPane)
			} else {
				m.focus(SidebarPane)
			}
			return m, nil
		}
	case "ctrl+r":
		return m.refresh()
	case "ctrl+z":
		return m.undo()
	case "ctrl+b":
		m.sidebar.ToggleCollapsed()
		m.recalcLayout()
		return m, nil
	}

	if m.activePane == SidebarPane {
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}
	if t := m.activeTable(); t != nil {
		*t, cmd = t.Update(msg)
		return m, cmd
	}
	if m.page == ui.PageSettings {
		return m.updateSettings(msg)
	}
	return m, nil
}

// applyEdit shows the edited row at once and sends it to the backend.
func (m Model) applyEdit(u directory.User) (Model, tea.Cmd) {
	next, id, ok := m.changes.Edit(m.users.Table().Records(), u.Record())
	if !ok {
		return m, m.statusbar.Toast(fmt.Sprintf("User %s is no longer loaded", u.ID), ui.MsgWarn)
	}
	m.users.SetRecords(next)
	return m, m.updateUser(id, u)
}

func (m Model) applyDelete(id string) (Model, tea.Cmd) {
	next, opID, ok := m.changes.Delete(m.users.Table().Records(), id)
	if !ok {
		return m, m.statusbar.Toast(fmt.Sprintf("User %s is no longer loaded", id), ui.MsgWarn)
	}
	m.users.SetRecords(next)
	return m, m.deleteUser(opID, id)
}

func (m Model) finishOp(msg opResultMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		if next, ok := m.changes.Rollback(msg.id, m.users.Table().Records()); ok {
			m.users.SetRecords(next)
		}
		logging.Log.WithError(msg.err).WithFields(logrus.Fields{
			"op": msg.op.String(),
			"id": msg.key,
		}).Warn("rolled back")
		return m, m.statusbar.Toast(fmt.Sprintf("Failed to %s user: %s", msg.op, msg.err), ui.MsgError)
	}

	m.changes.Commit(msg.id)
	text := "User updated successfully"
	if msg.op == editor.OpDelete {
		text = "User deleted successfully"
	}
	return m, m.statusbar.Toast(text, ui.MsgSuccess)
}

func (m Model) finishUpload(msg uploadResultMsg) (Model, tea.Cmd) {
	m.upload.Finish(msg.err)
	if msg.err != nil {
		logging.Log.WithError(msg.err).Error("upload users")
		return m, m.statusbar.Toast("Upload failed: "+msg.err.Error(), ui.MsgError)
	}

	m.uploadErrs = msg.result.Errors
	m.loadingUsers = true
	m.recalcLayout()
	text := msg.result.Message
	if msg.result.Partial {
		for _, e := range msg.result.Errors {
			logging.Log.WithField("row", e).Warn("upload row skipped")
		}
		if text == "" {
			text = "Upload partially successful"
		}
		return m, tea.Batch(
			m.statusbar.Toast(fmt.Sprintf("%s (%d rows skipped)", text, len(msg.result.Errors)), ui.MsgWarn),
			m.fetchUsers(),
		)
	}
	if text == "" {
		text = "Upload complete"
	}
	return m, tea.Batch(m.statusbar.Toast(text, ui.MsgSuccess), m.fetchUsers())
}

func (m Model) refresh() (Model, tea.Cmd) {
	m.loadingUsers = true
	m.uploadErrs = nil
	m.recalcLayout()
	return m, tea.Batch(
		m.statusbar.Toast("Refreshing...", ui.MsgInfo),
		m.fetchUsers(),
		m.fetchDepartments(),
	)
}

// undo reverts the last confirmed edit or delete locally and on the backend.
func (m Model) undo() (Model, tea.Cmd) {
	c, ok := m.changes.Undo()
	if !ok {
		return m, m.statusbar.Toast("Nothing to undo", ui.MsgInfo)
	}
	m.users.SetRecords(m.changes.Revert(c, m.users.Table().Records()))
	return m, m.revert(c)
}

func (m Model) updateSettings(msg tea.KeyMsg) (Model, tea.Cmd) {
	delta := 0
	switch msg.String() {
	case "left", "h":
		delta = -1
	case "right", "l":
		delta = 1
	default:
		return m, nil
	}
	n := stepRowsPerPage(m.cfg.Settings.RowsPerPage, delta)
	m.cfg.Settings.RowsPerPage = n
	m.users.SetRowsPerPage(n)
	m.depts.SetRowsPerPage(n)
	return m, m.saveSettings()
}

func stepRowsPerPage(current, delta int) int {
	opts := tableview.RowsPerPageOptions
	for i, n := range opts {
		if n == current {
			return opts[(i+delta+len(opts))%len(opts)]
		}
	}
	return tableview.DefaultRowsPerPage
}

func (m *Model) activeTable() *ui.DataTableModel {
	switch m.page {
	case ui.PageHome:
		return &m.depts
	case ui.PageStudents:
		return &m.users
	}
	return nil
}

func (m *Model) showPage(p ui.Page) {
	m.page = p
	m.sidebar.Select(p)
	m.focus(ContentPane)
}

func (m *Model) focus(p Pane) {
	m.activePane = p
	m.sidebar.SetFocused(p == SidebarPane)
	m.users.SetFocused(p == ContentPane && m.page == ui.PageStudents)
	m.depts.SetFocused(p == ContentPane && m.page == ui.PageHome)
}

func (m *Model) refreshHints() {
	var hints string
	switch {
	case m.activePane == SidebarPane:
		hints = "↑/↓ Navigate | Enter Open | Tab Content | Ctrl+B Collapse | Ctrl+R Refresh | Ctrl+C Quit"
	case m.activeTable() != nil:
		hints = m.activeTable().Hints()
		if !m.activeTable().Typing() {
			hints += " | Tab Menu"
			if m.page == ui.PageStudents && m.changes.CanUndo() {
				hints += " | Ctrl+Z Undo"
			}
		}
	case m.page == ui.PageSettings:
		hints = "←/→ Default rows per page | Tab Menu"
	default:
		hints = "Tab Menu | Ctrl+C Quit"
	}
	m.statusbar.SetHints(hints)

	if n := m.changes.PendingCount(); n > 0 {
		m.statusbar.SetRight(fmt.Sprintf("%d pending", n))
	} else {
		m.statusbar.SetRight(fmt.Sprintf("%d users", len(m.users.Table().Records())))
	}
}

func (m *Model) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	availH := m.height - 2 // top bar + status bar
	if availH < 6 {
		availH = 6
	}
	m.sidebar.SetSize(sidebarWidth, availH)
	contentW := m.width - m.sidebar.Width()

	usersH := availH
	if len(m.uploadErrs) > 0 {
		usersH -= min(len(m.uploadErrs), maxShownErrs) + 3
	}
	m.users.SetSize(contentW, max(usersH, 6))
	m.depts.SetSize(contentW, availH)
	m.statusbar.SetWidth(m.width)
	m.editForm.SetWidth(min(70, m.width-4))
}

// View renders the full layout.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	for _, modal := range []string{m.confirm.View(), m.editForm.View(), m.upload.View()} {
		if modal != "" {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
		}
	}

	topBar := ui.TopBarStyle.Width(m.width - 2).Render(fmt.Sprintf(" COE Console │ %s ", m.backend))
	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), m.contentView())
	return lipgloss.JoinVertical(lipgloss.Left, topBar, mainArea, m.statusbar.View())
}
