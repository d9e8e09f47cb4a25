package utils

import "strings"

// SanitizeText normalizes free-text input before it is validated or
// persisted: ASCII control characters (except tab, newline, carriage
// return) are stripped to avoid hidden payloads, surrounding whitespace
// is trimmed and the result is truncated to maxLen runes. An empty
// result after trimming collapses to "".
func SanitizeText(value string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, value)
	trimmed := strings.TrimSpace(cleaned)
	if maxLen > 0 {
		runes := []rune(trimmed)
		if len(runes) > maxLen {
			trimmed = string(runes[:maxLen])
		}
	}
	return trimmed
}
