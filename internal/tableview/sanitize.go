package tableview

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// MaxCellLength is the rune limit of a default-rendered cell.
const MaxCellLength = 80

const ellipsis = "..."

// StripMarkup returns the text content of s with all tags removed and
// entities decoded.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// Truncate cuts s to max runes and appends "..." when anything was removed.
func Truncate(s string, max int) string {
	if max < 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + ellipsis
		}
		n++
	}
	return s
}

// Sanitize strips markup, flattens line breaks and truncates to
// MaxCellLength. It is applied to every default-rendered string cell.
func Sanitize(s string) string {
	text := StripMarkup(s)
	text = strings.Join(strings.Fields(text), " ")
	return Truncate(text, MaxCellLength)
}

// FormatCell is the default cell renderer: strings are sanitized, other
// values are formatted as-is and missing values render empty.
func FormatCell(v any) string {
	if s, ok := v.(string); ok {
		return Sanitize(s)
	}
	return stringify(v)
}

// containsFold reports whether pattern occurs in text ignoring case.
func containsFold(text, pattern string) bool {
	if pattern == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(text), fold.String(pattern))
}
