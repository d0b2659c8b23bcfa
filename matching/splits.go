package matching

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	lowerUpperTransition = regexp.MustCompile(`[a-z][A-Z]`)
	pascalTransition     = regexp.MustCompile(`[A-Z][a-z]+[A-Z]`)
	capitalizedRun       = regexp.MustCompile(`[A-Z][a-z]+`)
)

const (
	// splitMinLength is the length a spaceless token must exceed before
	// positional splits are tried.
	splitMinLength = 8
	splitMinFirst  = 2
	splitMinSecond = 3
	splitEdge      = 3
)

// NameSplits proposes readings of a run-together token as two words.
//
// A camel or Pascal case token yields its capitalized runs joined by spaces
// ("JohnSmith" gives "John Smith"). A spaceless token longer than eight runes
// is additionally split at every position that does not fall between two
// lower case letters, emitting both the raw halves and a capitalized form.
func NameSplits(name string) []string {
	var splits []string

	if lowerUpperTransition.MatchString(name) || pascalTransition.MatchString(name) {
		parts := capitalizedRun.FindAllString(name, -1)
		if len(parts) >= 2 {
			splits = append(splits, strings.Join(parts, " "))
		}
	}

	runes := []rune(name)
	if len(runes) <= splitMinLength || strings.Contains(name, " ") {
		return splits
	}

	for i := splitEdge; i < len(runes)-splitEdge; i++ {
		if unicode.IsLower(runes[i-1]) && unicode.IsLower(runes[i]) {
			continue
		}
		first := strings.TrimSpace(string(runes[:i]))
		second := strings.TrimSpace(string(runes[i:]))
		if utf8.RuneCountInString(first) < splitMinFirst || utf8.RuneCountInString(second) < splitMinSecond {
			continue
		}
		splits = append(splits,
			first+" "+second,
			capitalize(first)+" "+capitalize(second),
		)
	}

	return splits
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
