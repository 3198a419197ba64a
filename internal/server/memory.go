package server

import (
	"context"
	"slices"
	"strings"
	"sync"

	"coe-console/internal/directory"
)

// MemoryStore is a Store kept in process memory. It backs --memory mode and
// tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]directory.User
	depts []directory.Department
	// Fail, when set, is returned by every call.
	Fail error
}

// DefaultDepartments seed a MemoryStore.
var DefaultDepartments = []directory.Department{
	{ID: 1, DeptShort: "CSE", DeptName: "Computer Science and Engineering"},
	{ID: 2, DeptShort: "ECE", DeptName: "Electronics and Communication Engineering"},
	{ID: 3, DeptShort: "EEE", DeptName: "Electrical and Electronics Engineering"},
	{ID: 4, DeptShort: "MECH", DeptName: "Mechanical Engineering"},
}

func NewMemoryStore(depts []directory.Department, users ...directory.User) *MemoryStore {
	m := &MemoryStore{users: make(map[string]directory.User), depts: slices.Clone(depts)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *MemoryStore) shortName(id int) string {
	if d, ok := directory.DepartmentByID(m.depts, id); ok {
		return d.DeptShort
	}
	return ""
}

func (m *MemoryStore) ListUsers(context.Context) ([]directory.User, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]directory.User, 0, len(m.users))
	for _, u := range m.users {
		u.DeptName = m.shortName(u.Dept)
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b directory.User) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) ListDepartments(context.Context) ([]directory.Department, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.depts)
	slices.SortFunc(out, func(a, b directory.Department) int { return strings.Compare(a.DeptName, b.DeptName) })
	return out, nil
}

func (m *MemoryStore) DepartmentIDs(context.Context) (map[string]int, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(map[string]int, len(m.depts))
	for _, d := range m.depts {
		ids[strings.ToUpper(d.DeptShort)] = d.ID
	}
	return ids, nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, id string, u directory.User) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return directory.ErrUserNotFound
	}
	for otherID, other := range m.users {
		if otherID != id && other.Email == u.Email {
			return directory.ErrEmailTaken
		}
	}
	u.ID = id
	u.DeptName = ""
	u.Degree = directory.NormalizeDegree(u.Degree)
	m.users[id] = u
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id string) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return directory.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) UpsertUsers(_ context.Context, rows []directory.UploadRow) ([]string, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rows {
		m.users[r.ID] = directory.User{
			ID: r.ID, Name: r.Name, Email: r.Email, Dept: r.DeptID, Year: r.Year, Degree: r.Degree,
		}
	}
	return nil, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return m.Fail
}
