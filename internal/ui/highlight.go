package ui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// HighlightMatches renders every case-insensitive occurrence of pattern in
// text with match and the rest with base.
func HighlightMatches(text, pattern string, base, match lipgloss.Style) string {
	if pattern == "" || text == "" {
		return base.Render(text)
	}

	src := []rune(text)
	folded := foldRunes(src)
	pat := foldRunes([]rune(pattern))

	var b strings.Builder
	start := 0
	for i := 0; i+len(pat) <= len(folded); {
		if runesEqual(folded[i:i+len(pat)], pat) {
			if i > start {
				b.WriteString(base.Render(string(src[start:i])))
			}
			b.WriteString(match.Render(string(src[i : i+len(pat)])))
			i += len(pat)
			start = i
			continue
		}
		i++
	}
	if start < len(src) {
		b.WriteString(base.Render(string(src[start:])))
	}
	return b.String()
}

func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// truncate shortens s to maxLen display columns, ending in "...".
func truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		if maxLen < 0 {
			maxLen = 0
		}
		return string(r[:min(maxLen, len(r))])
	}
	for len(r) > 0 && lipgloss.Width(string(r))+3 > maxLen {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
