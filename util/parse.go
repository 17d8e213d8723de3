package util

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize parses a human-readable size string (e.g. "10MB", "512KiB",
// "2 GB") into bytes. Returns defaultBytes if the string cannot be parsed
// or does not fit in an int64.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultBytes
	}
	n, err := humanize.ParseBytes(s)
	if err != nil || n == 0 || n > math.MaxInt64 {
		return defaultBytes
	}
	return int64(n)
}

// FormatSize renders a byte count the way ParseSize accepts it.
func FormatSize(n int64) string {
	if n < 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(n))
}

// MaskSecret hides sensitive parts of a string for safe display in logs.
// If the string is shorter than visiblePrefix, it is fully masked.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
