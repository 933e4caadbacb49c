// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s, collapses every run of characters outside [a-z0-9] into one hyphen
// and strips a leading and trailing hyphen. Non-ASCII letters are not transliterated:
// "Reunião Anual 2024!" becomes "reuni-o-anual-2024".
func Make(s string) string {
	out := nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	out = strings.TrimPrefix(out, "-")
	return strings.TrimSuffix(out, "-")
}

// WithSuffix returns base-n, used to disambiguate colliding slugs.
func WithSuffix(base string, n int) string {
	return base + "-" + strconv.Itoa(n)
}
