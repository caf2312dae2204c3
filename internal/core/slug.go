package core

import (
	"strings"
	"unicode"
)

// DefaultStem is used when an identifier slugs down to nothing.
const DefaultStem = "analysis"

// FileStem converts an identifier (analysis id, stage name) into a file-safe stem.
// - allowed: [a-z0-9._-]
// - whitespace => hyphen
// - drop all other chars
// - collapse repeated hyphens
// - trim leading/trailing hyphens and dots
// - maxLen enforced after cleanup
// if the result is empty or maxLen <= 0 => DefaultStem
func FileStem(id string, maxLen int) string {
	if maxLen <= 0 {
		return DefaultStem
	}

	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune('-')
		}
	}

	result := trimStem(collapseHyphens(b.String()))
	if len(result) > maxLen {
		result = trimStem(result[:maxLen])
	}
	if result == "" {
		return DefaultStem
	}
	return result
}

func trimStem(s string) string {
	return strings.Trim(s, "-.")
}

// collapseHyphens replaces multiple consecutive hyphens with a single hyphen.
func collapseHyphens(s string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		if r == '-' {
			if !prevHyphen {
				b.WriteRune(r)
			}
			prevHyphen = true
			continue
		}
		b.WriteRune(r)
		prevHyphen = false
	}
	return b.String()
}
