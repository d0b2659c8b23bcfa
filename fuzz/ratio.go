// Package fuzz provides whole-string and token based similarity ratios on a
// 0-100 integer scale.
//
// Ratio is the classic sequence ratio 2*M/T where M is the length of the
// longest common subsequence and T the combined length of both strings,
// measured in runes. The token variants compare strings as sorted word
// lists or word sets after light cleanup.
package fuzz

import (
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio returns the similarity of a and b in [0, 100].
// Either string being empty yields 0.
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	common := edlib.LCS(a, b)
	return int(math.RoundToEven(100 * float64(2*common) / float64(total)))
}

// TokenSortRatio compares a and b after cleaning and sorting their words.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(Clean(a)), sortedTokens(Clean(b)))
}

// TokenSetRatio compares the shared words of a and b against each side's
// remainder and returns the best of the three pairings.
func TokenSetRatio(a, b string) int {
	pa, pb := Clean(a), Clean(b)
	if pa == "" || pb == "" {
		return 0
	}

	setA := tokenSet(pa)
	setB := tokenSet(pb)

	var common, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	slices.Sort(common)
	slices.Sort(onlyA)
	slices.Sort(onlyB)

	sect := strings.Join(common, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return max(
		Ratio(sect, combinedA),
		Ratio(sect, combinedB),
		Ratio(combinedA, combinedB),
	)
}

// Clean drops non-ASCII runes, replaces anything that is not a letter,
// digit or underscore with a space, lowercases and trims.
func Clean(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.TrimSpace(mapped)
}

func sortedTokens(s string) string {
	toks := strings.Fields(s)
	slices.Sort(toks)
	return strings.Join(toks, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
