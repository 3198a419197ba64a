package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coe-console/internal/directory"
	"coe-console/internal/server"
)

func newBackend(t *testing.T) (*Client, *server.MemoryStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := server.NewMemoryStore(server.DefaultDepartments,
		directory.User{ID: "21CS001", Name: "Ann", Email: "ann@uni.edu", Dept: 1, Year: "2", Degree: "UG"},
		directory.User{ID: "21EC002", Name: "Ben", Email: "ben@uni.edu", Dept: 2, Year: "3", Degree: "PG"},
	)
	ts := httptest.NewServer(server.New(store, log, server.Options{}).Handler())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/", nil)
	require.NoError(t, err)
	return c, store
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.edu", nil)
	assert.Error(t, err)
	_, err = New("localhost:8080", nil)
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	c, _ := newBackend(t)
	ctx := context.Background()

	users, err := c.FetchUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "CSE", users[0].DeptName)

	depts, err := c.FetchDepartments(ctx)
	require.NoError(t, err)
	assert.Len(t, depts, len(server.DefaultDepartments))
}

func TestUpdateAndDelete(t *testing.T) {
	c, _ := newBackend(t)
	ctx := context.Background()

	err := c.UpdateUser(ctx, directory.User{ID: "21CS001", Name: "Ann", Email: "ben@uni.edu", Dept: 1, Degree: "UG"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Email already exists for another user.", apiErr.Message)

	require.NoError(t, c.UpdateUser(ctx, directory.User{ID: "21CS001", Name: "Ann B", Email: "annb@uni.edu", Dept: 1, Degree: "UG"}))

	require.NoError(t, c.DeleteUser(ctx, "21EC002"))
	err = c.DeleteUser(ctx, "21EC002")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestUploadUsers(t *testing.T) {
	c, store := newBackend(t)
	ctx := context.Background()

	res, err := c.UploadUsers(ctx, "upload.csv", "id,name,email,dept,year,degree\n22CS003,Cy,cy@uni.edu,CSE,1,UG\n")
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.Equal(t, "Users uploaded successfully.", res.Message)

	res, err = c.UploadUsers(ctx, "upload.csv", "id,name,email,dept,year,degree\n22CS004,Dee,dee@uni.edu,LAW,1,UG\n")
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.Len(t, res.Errors, 1)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	_, err = c.UploadUsers(ctx, "upload.csv", "id,name,email,dept,year,degree\n")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestServerErrorMessage(t *testing.T) {
	c, store := newBackend(t)
	store.Fail = errors.New("db down")

	_, err := c.FetchUsers(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to fetch user data: db down", apiErr.Message)
}
