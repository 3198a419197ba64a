package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"coe-console/internal/directory"
)

const queryTimeout = 30 * time.Second

// ListUsers returns every user joined with its department short name,
// ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]directory.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		SELECT u.id, u.name, u.email, COALESCE(u.dept, 0), COALESCE(d.dept_short, ''), u.year, u.degree
		FROM m_users u
		LEFT JOIN m_departments d ON u.dept = d.id
		ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []directory.User{}
	for rows.Next() {
		var u directory.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Dept, &u.DeptName, &u.Year, &u.Degree); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListDepartments returns the active departments ordered by name.
func (s *Store) ListDepartments(ctx context.Context) ([]directory.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		"SELECT id, dept_short, dept_name FROM m_departments WHERE status = '1' ORDER BY dept_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	depts := []directory.Department{}
	for rows.Next() {
		var d directory.Department
		if err := rows.Scan(&d.ID, &d.DeptShort, &d.DeptName); err != nil {
			return nil, err
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

// UpdateUser replaces the editable fields of user id. The email must not
// belong to another user.
func (s *Store) UpdateUser(ctx context.Context, id string, u directory.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing string
	err = tx.QueryRow(ctx, "SELECT id FROM m_users WHERE email = $1 AND id <> $2 LIMIT 1", u.Email, id).Scan(&existing)
	switch {
	case err == nil:
		return directory.ErrEmailTaken
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("email check: %w", err)
	}

	tag, err := tx.Exec(ctx,
		"UPDATE m_users SET name = $1, email = $2, dept = $3, year = $4, degree = $5 WHERE id = $6",
		u.Name, u.Email, u.Dept, u.Year, directory.NormalizeDegree(u.Degree), id)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrUserNotFound
	}
	return tx.Commit(ctx)
}

// DeleteUser removes user id.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, "DELETE FROM m_users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrUserNotFound
	}
	return nil
}

// UpsertUsers inserts or updates rows in one transaction. A row that fails
// is rolled back to its savepoint and reported; the rest still commit.
func (s *Store) UpsertUsers(ctx context.Context, rows []directory.UploadRow) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*queryTimeout)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var problems []string
	for _, r := range rows {
		if err := upsertRow(ctx, tx, r); err != nil {
			problems = append(problems, fmt.Sprintf("Row %d (ID: %s): Database error: %v. Skipping.", r.Line, r.ID, err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return problems, nil
}

func upsertRow(ctx context.Context, tx pgx.Tx, r directory.UploadRow) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	_, err = sp.Exec(ctx, `
		INSERT INTO m_users (id, name, email, dept, year, degree)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			dept = EXCLUDED.dept,
			year = EXCLUDED.year,
			degree = EXCLUDED.degree,
			status = '0'`,
		r.ID, r.Name, r.Email, r.DeptID, r.Year, r.Degree)
	if err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}
