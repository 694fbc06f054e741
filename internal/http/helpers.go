package http

import (
	"strconv"
	"strings"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// summaryKey identifies a summary by date range and by the number of
// expenses it was computed over. The collection only grows, so a summary
// cached under an older count is never served once an expense commits.
func summaryKey(from, to string, count int) string {
	return from + ".." + to + "@" + strconv.Itoa(count)
}
