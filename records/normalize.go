package records

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper decomposes and drops combining marks, so "negociação"
// normalizes to "negociacao".
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, trims, and strips accents for tolerant text matching.
func Normalize(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// MatchesNormalized reports whether needle is contained in haystack after
// both are normalized.
func MatchesNormalized(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}
