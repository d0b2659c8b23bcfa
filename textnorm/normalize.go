// Package textnorm folds free text into a canonical comparable form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var dropNonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })

// Normalize lowercases s, folds accented letters to their ASCII base, turns
// every character that is neither a word character nor whitespace into a
// space, collapses whitespace and trims. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// Chains buffer internally and are not safe to share between goroutines.
	folder := transform.Chain(norm.NFKD, runes.Remove(dropNonASCII))
	folded, _, err := transform.String(folder, strings.ToLower(s))
	if err != nil {
		return ""
	}

	mapped := strings.Map(func(r rune) rune {
		if isWordByte(r) {
			return r
		}
		return ' '
	}, folded)

	return strings.Join(strings.Fields(mapped), " ")
}

// Tokens returns the whitespace separated tokens of the normalized form of s.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

func isWordByte(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
