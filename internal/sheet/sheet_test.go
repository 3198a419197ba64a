package sheet

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"coe-console/internal/tableview"
)

func users(n int) []tableview.Record {
	out := make([]tableview.Record, n)
	for i := range out {
		out[i] = tableview.Record{
			"id":     fmt.Sprintf("21CS%03d", i+1),
			"name":   fmt.Sprintf("Student %d", i+1),
			"email":  fmt.Sprintf("s%d@uni.edu", i+1),
			"degree": "UG",
		}
	}
	return out
}

func TestExportRoundTrip(t *testing.T) {
	records := users(12)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, records, Options{Title: "All Users"}))

	text, err := ReadWorkbook("users.xlsx", &buf)
	require.NoError(t, err)

	got, err := ParseCSVRecords(text)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestExportSheetAndHeaders(t *testing.T) {
	records := []tableview.Record{
		{"name": "Alice", "year": 2},
		{"name": "Bob", "dept": "EE"},
	}
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, records, Options{Title: "Users: 2024/25"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Users  2024 25"}, f.GetSheetList())

	buf.Reset()
	require.NoError(t, Export(&buf, records, Options{}))
	text, err := ReadWorkbook("users.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, "dept,name,year\n,Alice,2\nEE,Bob,\n", text)
}

func TestExportHonoursHeaderOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, users(1), Options{Headers: []string{"name", "id"}}))

	text, err := ReadWorkbook("x.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, "name,id\nStudent 1,21CS001\n", text)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Data", SheetName(""))
	assert.Equal(t, "Data", SheetName("  "))
	assert.Equal(t, "All Users", SheetName("All Users"))
	assert.Len(t, []rune(SheetName(strings.Repeat("x", 40))), 31)
}

func TestReadWorkbookRejectsExtension(t *testing.T) {
	for _, name := range []string{"users.csv", "legacy.xls", "users.xlsx.bak"} {
		_, err := ReadWorkbook(name, strings.NewReader("id,name"))
		assert.ErrorIs(t, err, ErrInvalidExtension, name)
	}
}

func TestReadWorkbookRejectsGarbage(t *testing.T) {
	_, err := ReadWorkbook("users.xlsx", strings.NewReader("not a zip archive"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestReadWorkbookPadsRows(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"id", "name", "email"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"1", "Ann"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	text, err := ReadWorkbook("pad.XLSX", &buf)
	require.NoError(t, err)
	assert.Equal(t, "id,name,email\n1,Ann,\n", text)
}

func TestWriteFileAndSample(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteFile(dir, users(3), Options{Title: "All Users"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "All Users.xlsx"), path)

	text, err := ReadFile(path)
	require.NoError(t, err)
	recs, err := ParseCSVRecords(text)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	sample, err := WriteSample(dir)
	require.NoError(t, err)
	_, err = os.Stat(sample)
	require.NoError(t, err)
	text, err = ReadFile(sample)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "id,name,email,dept,year,degree\n"))
}
