package helpers

import (
	"strconv"
	"strings"
)

// Ellipsis marks a truncated snippet.
const Ellipsis = "…"

// Snippet collapses whitespace in text and truncates it to limit characters,
// appending an ellipsis when anything was cut.
func Snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimRight(string(runes[:limit]), " ") + Ellipsis
}

// Marker renders the nth citation marker, e.g. "[3]".
func Marker(n int) string {
	return "[" + strconv.Itoa(n) + "]"
}

// FormatSourceEntry renders one source directory line: "[n] Title – url".
// The title segment is omitted when blank.
func FormatSourceEntry(marker, title, link string) string {
	var b strings.Builder
	b.WriteString(marker)
	b.WriteByte(' ')
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString(title)
		b.WriteString(" – ")
	}
	b.WriteString(strings.TrimSpace(link))
	return b.String()
}

