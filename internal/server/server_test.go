package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coe-console/internal/directory"
	"coe-console/internal/sheet"
)

func seedUsers() []directory.User {
	return []directory.User{
		{ID: "21CS001", Name: "Ann Lee", Email: "ann@uni.edu", Dept: 1, Year: "2", Degree: "UG"},
		{ID: "21EC002", Name: "Ben Roy", Email: "ben@uni.edu", Dept: 2, Year: "3", Degree: "PG"},
		{ID: "21ME003", Name: "<b>Cy</b> Park", Email: "cy@uni.edu", Dept: 4, Year: "1", Degree: "MBA"},
	}
}

func newTestServer(t *testing.T) (*Server, *MemoryStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := NewMemoryStore(DefaultDepartments, seedUsers()...)
	return New(store, log, Options{}), store
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestGetUsers(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var users []directory.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 3)
	assert.Equal(t, "21CS001", users[0].ID)
	assert.Equal(t, "CSE", users[0].DeptName)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestGetDepartmentsOrderedByName(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, httptest.NewRequest(http.MethodGet, "/api/departments", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var depts []directory.Department
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &depts))
	require.Len(t, depts, 4)
	assert.Equal(t, "CSE", depts[0].DeptShort)
	assert.Equal(t, "MECH", depts[3].DeptShort)
}

func TestUpdateUser(t *testing.T) {
	s, store := newTestServer(t)

	update := directory.User{Name: "Ann L.", Email: "ann@uni.edu", Dept: 2, Year: "3", Degree: "m.tech"}
	w := do(s, httptest.NewRequest(http.MethodPut, "/api/users/21CS001", jsonBody(t, update)))
	require.Equal(t, http.StatusOK, w.Code)

	users, _ := store.ListUsers(context.Background())
	assert.Equal(t, "Ann L.", users[0].Name)
	assert.Equal(t, "ECE", users[0].DeptName)
	assert.Equal(t, "PG", users[0].Degree)

	update.Email = "ben@uni.edu"
	w = do(s, httptest.NewRequest(http.MethodPut, "/api/users/21CS001", jsonBody(t, update)))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Email already exists")

	update.Email = "new@uni.edu"
	w = do(s, httptest.NewRequest(http.MethodPut, "/api/users/NOPE", jsonBody(t, update)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, httptest.NewRequest(http.MethodPut, "/api/users/21CS001", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteUser(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, httptest.NewRequest(http.MethodDelete, "/api/users/21EC002", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, httptest.NewRequest(http.MethodDelete, "/api/users/21EC002", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No user found")
}

func TestStoreFailureIs500(t *testing.T) {
	s, store := newTestServer(t)
	store.Fail = errors.New("connection refused")

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func uploadRequest(t *testing.T, name, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-users", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadUsers(t *testing.T) {
	s, store := newTestServer(t)

	w := do(s, uploadRequest(t, "users.xlsx", "id"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please upload a CSV file")

	w = do(s, uploadRequest(t, "users.csv", "id,name,email,dept,year,degree\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, uploadRequest(t, "upload.csv", "id,name,email,dept,year,degree\n22CS010,Dee,dee@uni.edu,cse,1,btech\n"))
	require.Equal(t, http.StatusOK, w.Code)
	users, _ := store.ListUsers(context.Background())
	assert.Len(t, users, 4)

	w = do(s, uploadRequest(t, "upload.csv", "id,name,email,dept,year,degree\n22CS011,Eve,eve@uni.edu,CSE,1,UG\n22XX012,Fay,fay@uni.edu,ARCH,1,UG\n"))
	require.Equal(t, http.StatusAccepted, w.Code)

	var res directory.UploadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Users uploaded with some errors.", res.Message)
	assert.Equal(t, []string{"Row 3 (ID: 22XX012): Department 'ARCH' not found. Skipping."}, res.Errors)
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "S. No")
	assert.Contains(t, body, "Ann Lee")
	assert.Contains(t, body, "Cy Park")
	assert.NotContains(t, body, "<b>Cy</b>")
	assert.Contains(t, body, "Page 1 of 1")

	w = do(s, httptest.NewRequest(http.MethodGet, "/?q=ben", nil))
	body = w.Body.String()
	assert.Contains(t, body, "Ben Roy")
	assert.NotContains(t, body, "Ann Lee")

	w = do(s, httptest.NewRequest(http.MethodGet, "/?f.degree=phd", nil))
	body = w.Body.String()
	assert.Contains(t, body, "No Records Found")
	assert.Contains(t, body, "Page 0 of 0")

	w = do(s, httptest.NewRequest(http.MethodGet, "/?rows=5&sort=id&dir=desc", nil))
	body = w.Body.String()
	assert.Less(t, strings.Index(body, "Cy Park"), strings.Index(body, "Ann Lee"))
}

func TestSortURLToggles(t *testing.T) {
	assert.Equal(t, "?dir=asc&sort=name", sortURL(nil, "name"))
	q := map[string][]string{"sort": {"name"}, "dir": {"asc"}, "page": {"3"}}
	assert.Equal(t, "?dir=desc&sort=name", sortURL(q, "name"))
	q = map[string][]string{"sort": {"name"}, "dir": {"desc"}}
	assert.Equal(t, "?dir=asc&sort=name", sortURL(q, "name"))
	assert.Equal(t, "?dir=asc&sort=email", sortURL(q, "email"))
}

func TestExportWorkbook(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	text, err := sheet.ReadWorkbook("All Users.xlsx", w.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "id,name,email,dept,deptName,year,degree\n21CS001,Ann Lee,ann@uni.edu,1,CSE,2,UG\n"))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/users/21CS001", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)

	w := do(s, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
