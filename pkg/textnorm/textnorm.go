// Package textnorm normalises human-entered names for comparison.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?-]+`)
	spaces     = regexp.MustCompile(`\s+`)
)

// StripAccents removes combining marks after canonical decomposition ("Módulo" -> "Modulo").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lower-cases s, strips diacritics, drops every character that is neither a word
// character, whitespace nor one of .,!?- and collapses runs of whitespace.
func Normalize(s string) string {
	s = strings.ToLower(StripAccents(s))
	s = disallowed.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Equal reports whether a and b normalise to the same string.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ContainsAny reports whether any whitespace-separated keyword of term occurs in s once both
// are normalised. An empty term matches nothing.
func ContainsAny(s, term string) bool {
	haystack := Normalize(s)
	for _, word := range strings.Fields(Normalize(term)) {
		if strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}
