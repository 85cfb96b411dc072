// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// Snippet flattens newlines to spaces and truncates to maxLen runes.
// The ellipsis is always appended, matching how source previews are shown.
func Snippet(s string, maxLen int) string {
	flat := strings.ReplaceAll(s, "\r\n", " ")
	flat = strings.ReplaceAll(flat, "\n", " ")
	r := []rune(flat)
	if maxLen > 0 && len(r) > maxLen {
		r = r[:maxLen]
	}
	return string(r) + "..."
}
