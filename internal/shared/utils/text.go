// Package utils holds small text helpers shared by the pipeline stages.
package utils

import (
	"strings"
	"unicode/utf8"
)

// NormalizeWhitespace collapses runs of whitespace into single spaces
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes cuts s to at most max characters without splitting a rune.
// The second result reports whether anything was removed.
func TruncateRunes(s string, max int) (string, bool) {
	if max < 0 {
		max = 0
	}
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// Fingerprint is a short stable digest of content for log correlation
func Fingerprint(content string) string {
	return DefaultHasher().HashString(content)[:12]
}
