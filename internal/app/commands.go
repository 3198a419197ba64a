package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"coe-console/internal/directory"
	"coe-console/internal/editor"
	"coe-console/internal/ui"
)

// requestTimeout bounds every backend call.
const requestTimeout = 30 * time.Second

type usersLoadedMsg struct {
	users []directory.User
	err   error
}

type departmentsLoadedMsg struct {
	depts []directory.Department
	err   error
}

// opResultMsg is the backend's answer to an optimistic edit or delete.
type opResultMsg struct {
	id  int
	op  editor.OpType
	key string
	err error
}

type undoResultMsg struct {
	change editor.Change
	err    error
}

type uploadResultMsg struct {
	result directory.UploadResult
	err    error
}

type settingsSavedMsg struct {
	err error
}

func (m Model) fetchUsers() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		users, err := src.FetchUsers(ctx)
		return usersLoadedMsg{users: users, err: err}
	}
}

func (m Model) fetchDepartments() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		depts, err := src.FetchDepartments(ctx)
		return departmentsLoadedMsg{depts: depts, err: err}
	}
}

func (m Model) updateUser(id int, u directory.User) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return opResultMsg{id: id, op: editor.OpEdit, key: u.ID, err: src.UpdateUser(ctx, u)}
	}
}

func (m Model) deleteUser(id int, key string) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return opResultMsg{id: id, op: editor.OpDelete, key: key, err: src.DeleteUser(ctx, key)}
	}
}

func (m Model) uploadUsers(csv string) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := src.UploadUsers(ctx, ui.UploadFileName, csv)
		return uploadResultMsg{result: res, err: err}
	}
}

// revert applies the inverse of a confirmed change on the backend. A deleted
// user is recreated through the upload endpoint.
func (m Model) revert(c editor.Change) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		before := directory.UserFromRecord(c.Before)
		if c.Type == editor.OpEdit {
			return undoResultMsg{change: c, err: src.UpdateUser(ctx, before)}
		}

		var buf bytes.Buffer
		if err := directory.WriteUpload(&buf, []directory.User{before}); err != nil {
			return undoResultMsg{change: c, err: err}
		}
		res, err := src.UploadUsers(ctx, ui.UploadFileName, buf.String())
		if err == nil && res.Partial {
			err = errors.New(strings.Join(res.Errors, "; "))
		}
		return undoResultMsg{change: c, err: err}
	}
}

func (m Model) saveSettings() tea.Cmd {
	snapshot := *m.cfg
	return func() tea.Msg {
		return settingsSavedMsg{err: snapshot.Save()}
	}
}
