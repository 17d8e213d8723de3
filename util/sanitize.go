package util

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeString trims whitespace and removes control characters from s.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// SanitizeText is SanitizeString with '<' and '>' removed, for free-text
// form values that end up in stored records.
func SanitizeText(s string) string {
	return strings.TrimSpace(angleBrackets.Replace(SanitizeString(s)))
}

// SanitizeFileName reduces a client-supplied name to its base component
// with control characters and path separators removed. An empty or
// dot-only result becomes fallback.
func SanitizeFileName(name, fallback string) string {
	name = SanitizeString(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if strings.Trim(name, ".") == "" {
		return fallback
	}
	return name
}
