// Package directory holds the user and department model shared by the
// console, its REST client and the backend.
package directory

import (
	"errors"
	"strconv"
	"strings"

	"coe-console/internal/tableview"
)

var (
	ErrUserNotFound = errors.New("no user found with the given ID")
	ErrEmailTaken   = errors.New("email already exists for another user")
)

// Department is an active row of m_departments.
type Department struct {
	ID        int    `json:"id"`
	DeptShort string `json:"dept_short"`
	DeptName  string `json:"dept_name"`
}

// User is a row of m_users. Dept holds the department ID; DeptName is the
// department short name joined in for display.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Dept     int    `json:"dept"`
	DeptName string `json:"deptName"`
	Year     string `json:"year"`
	Degree   string `json:"degree"`
}

// Field identifiers of a user record, in export order.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldDept     = "dept"
	FieldDeptName = "deptName"
	FieldYear     = "year"
	FieldDegree   = "degree"
)

// UserFields lists every field of a user record in export order.
var UserFields = []string{FieldID, FieldName, FieldEmail, FieldDept, FieldDeptName, FieldYear, FieldDegree}

// UserColumns are the columns of the users table.
var UserColumns = []tableview.Column{
	{Label: "ID", Field: FieldID},
	{Label: "Name", Field: FieldName},
	{Label: "Email", Field: FieldEmail},
	{Label: "Dept", Field: FieldDeptName},
	{Label: "Year", Field: FieldYear},
	{Label: "Degree", Field: FieldDegree},
}

// Record converts u into a table record.
func (u User) Record() tableview.Record {
	return tableview.Record{
		FieldID:       u.ID,
		FieldName:     u.Name,
		FieldEmail:    u.Email,
		FieldDept:     u.Dept,
		FieldDeptName: u.DeptName,
		FieldYear:     u.Year,
		FieldDegree:   u.Degree,
	}
}

// UserFromRecord is the inverse of User.Record. Unknown or mistyped fields
// are left at their zero value.
func UserFromRecord(r tableview.Record) User {
	u := User{
		ID:       r.Text(FieldID),
		Name:     r.Text(FieldName),
		Email:    r.Text(FieldEmail),
		DeptName: r.Text(FieldDeptName),
		Year:     r.Text(FieldYear),
		Degree:   r.Text(FieldDegree),
	}
	switch d := r[FieldDept].(type) {
	case int:
		u.Dept = d
	case float64:
		u.Dept = int(d)
	case string:
		u.Dept, _ = strconv.Atoi(d)
	}
	return u
}

// UserRecords converts a slice of users.
func UserRecords(users []User) []tableview.Record {
	out := make([]tableview.Record, len(users))
	for i, u := range users {
		out[i] = u.Record()
	}
	return out
}

// Degrees are the values accepted by the degree column.
var Degrees = []string{"UG", "PG", "MBA", "PHD"}

// NormalizeDegree maps free-form degree text onto Degrees, defaulting to UG.
func NormalizeDegree(degree string) string {
	switch strings.ToUpper(strings.TrimSpace(degree)) {
	case "UG", "B.TECH", "BTECH":
		return "UG"
	case "PG", "M.TECH", "MTECH":
		return "PG"
	case "MBA":
		return "MBA"
	case "PHD":
		return "PHD"
	default:
		return "UG"
	}
}

// DepartmentByID finds a department in depts.
func DepartmentByID(depts []Department, id int) (Department, bool) {
	for _, d := range depts {
		if d.ID == id {
			return d, true
		}
	}
	return Department{}, false
}

// Field identifiers of a department record.
const (
	FieldDeptShort    = "dept_short"
	FieldDeptFullName = "dept_name"
)

// DepartmentColumns are the columns of the departments table.
var DepartmentColumns = []tableview.Column{
	{Label: "Code", Field: FieldDeptShort},
	{Label: "Department", Field: FieldDeptFullName},
}

// Record converts d into a table record.
func (d Department) Record() tableview.Record {
	return tableview.Record{
		FieldID:           d.ID,
		FieldDeptShort:    d.DeptShort,
		FieldDeptFullName: d.DeptName,
	}
}

// DepartmentRecords converts a slice of departments.
func DepartmentRecords(depts []Department) []tableview.Record {
	out := make([]tableview.Record, len(depts))
	for i, d := range depts {
		out[i] = d.Record()
	}
	return out
}

// UploadResult is the backend's answer to a bulk upload.
type UploadResult struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	// Partial is set when some rows were skipped.
	Partial bool `json:"-"`
}
