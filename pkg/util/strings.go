package util

import (
	"strconv"
	"strings"
)

// NormalizeID canonicalizes a series id or ticker symbol. FRED ids and
// exchange symbols are uppercase; lookups and cache keys use this form so
// "cpiaucsl" and "CPIAUCSL" address the same indicator.
func NormalizeID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
