package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"coe-console/internal/directory"
	"coe-console/internal/sheet"
	"coe-console/internal/tableview"
)

const usersTitle = "All Users"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var templateFuncs = template.FuncMap{
	"pageURL": pageURL,
	"sortURL": sortURL,
	"add":     func(a, b int) int { return a + b },
}

// pageView is the data handed to index.html.
type pageView struct {
	Title       string
	Table       tableview.Rendered
	Columns     []tableview.Column
	Search      string
	Filters     map[string]string
	SortField   string
	SortDir     string
	RowsPerPage int
	RowOptions  []int
	Query       url.Values
}

// applyQuery replays the query parameters q, f.<field>, sort, dir, rows and
// page onto t in the order a user would have produced them.
func applyQuery(t *tableview.Table, q url.Values) {
	if n, err := strconv.Atoi(q.Get("rows")); err == nil {
		t.SetRowsPerPage(n)
	}
	if s := q.Get("q"); s != "" {
		t.SetSearch(s)
	}
	for _, col := range t.Config().Columns {
		if v := q.Get("f." + col.Field); v != "" {
			t.SetColumnFilter(col.Field, v)
		}
	}
	if field := q.Get("sort"); field != "" {
		t.ToggleSort(field)
		if strings.EqualFold(q.Get("dir"), "desc") {
			t.ToggleSort(field)
		}
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		t.SetPage(n)
	}
}

func pageURL(q url.Values, page int) string {
	next := cloneValues(q)
	next.Set("page", strconv.Itoa(page))
	return "?" + next.Encode()
}

// sortURL mirrors the two-valued toggle: the first click sorts ascending,
// the next one descending, and so on.
func sortURL(q url.Values, field string) string {
	next := cloneValues(q)
	dir := "asc"
	if q.Get("sort") == field && !strings.EqualFold(q.Get("dir"), "desc") {
		dir = "desc"
	}
	next.Set("sort", field)
	next.Set("dir", dir)
	next.Del("page")
	return "?" + next.Encode()
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (s *Server) index(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.entry(c).WithError(err).Error("list users")
		c.String(http.StatusInternalServerError, "Failed to fetch user data: %v", err)
		return
	}

	t := tableview.New(tableview.Config{Title: usersTitle, Columns: directory.UserColumns}, directory.UserRecords(users))
	q := c.Request.URL.Query()
	applyQuery(t, q)

	st := t.State()
	view := pageView{
		Title:       usersTitle,
		Table:       t.Render(),
		Columns:     directory.UserColumns,
		Search:      st.Search,
		Filters:     st.Filters,
		RowsPerPage: st.RowsPerPage,
		RowOptions:  tableview.RowsPerPageOptions,
		Query:       q,
	}
	if st.Sort != nil {
		view.SortField = st.Sort.Field
		view.SortDir = st.Sort.Direction.String()
	}
	c.HTML(http.StatusOK, "index.html", view)
}

func (s *Server) exportUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.entry(c).WithError(err).Error("list users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user data", "error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := sheet.Export(&buf, directory.UserRecords(users), sheet.Options{Title: usersTitle, Headers: directory.UserFields}); err != nil {
		s.entry(c).WithError(err).Error("export users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to build spreadsheet", "error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+usersTitle+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
