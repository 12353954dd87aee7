package validation

import (
	"html"
	"strings"
	"unicode/utf8"
)

// EscapeText trims user supplied text and escapes it for storage.
func EscapeText(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// DecodeText reverses EscapeText for output.
func DecodeText(s string) string {
	return html.UnescapeString(s)
}

// TextLength counts runes after trimming, which is what length limits apply to.
func TextLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
