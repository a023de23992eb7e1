package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeUsername trims surrounding whitespace and applies NFKC so that
// visually identical usernames typed on different keyboards compare equal.
func NormalizeUsername(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
