// Package strings provides string normalization shared by the sheet parsers
// and the identifier generator.
package strings

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold trims, lowercases and strips combining marks so that sheet headers
// typed with or without accents compare equal.
//
// Example:
//
//	Fold(" Espécies ") // "especies"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// EqualFold reports whether a and b are equal after Fold.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Slug lowercases and trims s and replaces every whitespace run with a
// single underscore. Accents are kept as typed.
//
// Example:
//
//	Slug("  Ponta  d'Ouro ") // "ponta_d'ouro"
func Slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// TrimQuotes removes one pair of surrounding double quotes, then whitespace.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
