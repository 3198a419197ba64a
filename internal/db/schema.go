package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrateURL rewrites a postgres:// URL onto the pgx v5 migrate driver.
func migrateURL(connString string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

// Migrate applies all embedded up migrations.
func Migrate(connString string) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(connString))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// LoadDepartments refreshes the short-name cache used to resolve uploads.
// Only active departments are loaded.
func (s *Store) LoadDepartments(ctx context.Context) (int, error) {
	rows, err := s.Pool.Query(ctx, "SELECT id, dept_short FROM m_departments WHERE status = '1'")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	ids := make(map[string]int)
	for rows.Next() {
		var id int
		var short string
		if err := rows.Scan(&id, &short); err != nil {
			return 0, err
		}
		ids[strings.ToUpper(short)] = id
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.deptIDs = ids
	s.mu.Unlock()
	return len(ids), nil
}

// DepartmentIDs returns a copy of the cached short-name lookup.
func (s *Store) DepartmentIDs(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	n := len(s.deptIDs)
	s.mu.RUnlock()
	if n == 0 {
		if _, err := s.LoadDepartments(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.deptIDs))
	for k, v := range s.deptIDs {
		out[k] = v
	}
	return out, nil
}
