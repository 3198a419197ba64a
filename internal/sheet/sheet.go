// Package sheet converts records to and from spreadsheet workbooks.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"coe-console/internal/directory"
	"coe-console/internal/tableview"
)

var (
	// ErrInvalidExtension is returned for uploads that are not .xlsx. Legacy
	// .xls workbooks are rejected too since excelize only reads OOXML.
	ErrInvalidExtension = errors.New("invalid file format, please upload an .xlsx file")
	// ErrUnreadable is returned when the workbook cannot be parsed.
	ErrUnreadable = errors.New("error reading or converting the file")
	// ErrEmptySheet is returned when the first sheet has no rows.
	ErrEmptySheet = errors.New("the first sheet is empty")
)

const (
	defaultSheet    = "Sheet1"
	maxSheetNameLen = 31
)

var (
	workbookExt      = regexp.MustCompile(`(?i)\.xlsx$`)
	sheetNameInvalid = regexp.MustCompile(`[\[\]:*?/\\]`)
)

// Options controls an export.
type Options struct {
	// Title names the sheet and the file. Defaults to "Data".
	Title string
	// Headers fixes the column order. When empty the sorted union of record
	// keys is used.
	Headers []string
}

// SheetName turns a title into a valid worksheet name.
func SheetName(title string) string {
	name := strings.TrimSpace(sheetNameInvalid.ReplaceAllString(title, " "))
	name = strings.Trim(name, "'")
	if name == "" {
		return "Data"
	}
	if r := []rune(name); len(r) > maxSheetNameLen {
		name = string(r[:maxSheetNameLen])
	}
	return name
}

// Headers returns the sorted union of the keys of records.
func Headers(records []tableview.Record) []string {
	seen := make(map[string]struct{})
	var headers []string
	for _, r := range records {
		for k := range r {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			headers = append(headers, k)
		}
	}
	slices.Sort(headers)
	return headers
}

// Export writes records as a single-sheet workbook to w. The first row holds
// the field identifiers, each following row one record.
func Export(w io.Writer, records []tableview.Record, opts Options) error {
	headers := opts.Headers
	if len(headers) == 0 {
		headers = Headers(records)
	}

	f := excelize.NewFile()
	defer f.Close()

	name := SheetName(opts.Title)
	if err := f.SetSheetName(defaultSheet, name); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		row := make([]interface{}, len(headers))
		for j, h := range headers {
			row[j] = cellValue(r[h])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile exports records to <dir>/<title>.xlsx and returns the path.
func WriteFile(dir string, records []tableview.Record, opts Options) (string, error) {
	base := strings.TrimSpace(opts.Title)
	if base == "" {
		base = "data"
	}
	base = sheetNameInvalid.ReplaceAllString(base, "_")
	path := filepath.Join(dir, base+".xlsx")

	var buf bytes.Buffer
	if err := Export(&buf, records, opts); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteSample writes the upload template, with one example row, to
// <dir>/sample_student_data.xlsx.
func WriteSample(dir string) (string, error) {
	example := tableview.Record{
		"id": "21CS001", "name": "Jane Doe", "email": "jane@example.edu",
		"dept": "CSE", "year": "2", "degree": "UG",
	}
	return WriteFile(dir, []tableview.Record{example}, Options{
		Title:   "sample_student_data",
		Headers: directory.UploadHeader,
	})
}

func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return val
	}
}

// ReadWorkbook parses an uploaded workbook and returns its first sheet as
// CSV text. Rows shorter than the widest row are padded so the result is
// rectangular.
func ReadWorkbook(name string, r io.Reader) (string, error) {
	if !workbookExt.MatchString(name) {
		return "", ErrInvalidExtension
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(rows) == 0 {
		return "", ErrEmptySheet
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		if err := w.Write(padded); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ReadFile opens path and parses it with ReadWorkbook.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadWorkbook(filepath.Base(path), f)
}

// ParseCSVRecords turns CSV text with a header row into records keyed by the
// header cells.
func ParseCSVRecords(text string) ([]tableview.Record, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	headers := rows[0]
	records := make([]tableview.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(tableview.Record, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
