package directory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyUpload is returned when the CSV has no data rows.
var ErrEmptyUpload = errors.New("CSV file is empty or has only a header row")

// uploadColumns is the number of columns each data row must carry:
// id, name, email, dept, year, degree.
const uploadColumns = 6

// UploadRow is a validated upload line ready to be stored.
type UploadRow struct {
	Line   int
	ID     string
	Name   string
	Email  string
	DeptID int
	Year   string
	Degree string
}

// ParseUpload reads an upload CSV. The header row is skipped. Rows that
// cannot be stored are reported in problems and left out of rows. deptIDs
// maps upper-cased department short names to IDs.
func ParseUpload(r io.Reader, deptIDs map[string]int) (rows []UploadRow, problems []string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil, ErrEmptyUpload
	}

	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < uploadColumns {
			problems = append(problems, fmt.Sprintf("Row %d: Insufficient columns. Expected %d, got %d. Skipping.", line, uploadColumns, len(rec)))
			continue
		}

		id := strings.TrimSpace(rec[0])
		if id == "" {
			problems = append(problems, fmt.Sprintf("Row %d: 'id' (Reg No) cannot be empty. Skipping.", line))
			continue
		}

		deptShort := strings.ToUpper(strings.TrimSpace(rec[3]))
		deptID, ok := deptIDs[deptShort]
		if !ok {
			problems = append(problems, fmt.Sprintf("Row %d (ID: %s): Department '%s' not found. Skipping.", line, id, rec[3]))
			continue
		}

		rows = append(rows, UploadRow{
			Line:   line,
			ID:     id,
			Name:   strings.TrimSpace(rec[1]),
			Email:  strings.TrimSpace(rec[2]),
			DeptID: deptID,
			Year:   strings.TrimSpace(rec[4]),
			Degree: NormalizeDegree(rec[5]),
		})
	}
	return rows, problems, nil
}

// UploadHeader is the header row of an upload CSV.
var UploadHeader = []string{"id", "name", "email", "dept", "year", "degree"}

// WriteUpload writes users as an upload CSV, with departments by short name.
func WriteUpload(w io.Writer, users []User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(UploadHeader); err != nil {
		return err
	}
	for _, u := range users {
		if err := cw.Write([]string{u.ID, u.Name, u.Email, u.DeptName, u.Year, u.Degree}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
