package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coe-console/internal/directory"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db", migrateURL("postgres://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://u@h/db", migrateURL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://x", migrateURL("pgx5://x"))
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("COE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("COE_TEST_DATABASE_URL not set")
	}
	require.NoError(t, Migrate(url))

	s, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.Pool.Exec(context.Background(), "DELETE FROM m_users WHERE id LIKE 'TEST%'")
	require.NoError(t, err)
	return s
}

func TestStoreLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids, err := s.DepartmentIDs(ctx)
	require.NoError(t, err)
	cse, ok := ids["CSE"]
	require.True(t, ok)

	problems, err := s.UpsertUsers(ctx, []directory.UploadRow{
		{Line: 2, ID: "TEST001", Name: "Ann", Email: "ann@test.edu", DeptID: cse, Year: "1", Degree: "UG"},
		{Line: 3, ID: "TEST002", Name: "Ben", Email: "ben@test.edu", DeptID: cse, Year: "2", Degree: "PG"},
		{Line: 4, ID: "TEST003", Name: "Bad", Email: "bad@test.edu", DeptID: -1, Year: "2", Degree: "PG"},
	})
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "Row 4 (ID: TEST003)")

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	var found []directory.User
	for _, u := range users {
		if u.ID == "TEST001" || u.ID == "TEST002" {
			found = append(found, u)
		}
	}
	require.Len(t, found, 2)
	assert.Equal(t, "CSE", found[0].DeptName)

	ben := found[1]
	ben.Email = "ann@test.edu"
	assert.ErrorIs(t, s.UpdateUser(ctx, ben.ID, ben), directory.ErrEmailTaken)

	ben.Email = "ben2@test.edu"
	require.NoError(t, s.UpdateUser(ctx, ben.ID, ben))
	assert.ErrorIs(t, s.UpdateUser(ctx, "TEST404", ben), directory.ErrUserNotFound)

	require.NoError(t, s.DeleteUser(ctx, "TEST001"))
	assert.ErrorIs(t, s.DeleteUser(ctx, "TEST001"), directory.ErrUserNotFound)

	depts, err := s.ListDepartments(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, depts)
}
