package matching

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/payermatch/fuzz"
	"github.com/poiesic/payermatch/textnorm"
)

const (
	// ExactMatchScore is returned when a candidate normalizes to the user's name.
	ExactMatchScore = 100.0

	// MinScore and MaxScore bound every score.
	MinScore = 0.0
	MaxScore = 100.0
)

// Weights holds the tuned constants of the name scoring heuristic.
// Overall, FirstName, MiddleName, LastName and Coverage are the maximum
// points each component contributes; with the defaults they sum to 100.
type Weights struct {
	Overall    float64 // whole-string token similarity
	FirstName  float64
	MiddleName float64
	LastName   float64
	Coverage   float64 // fraction of name parts matched

	// PartMatchCutoff is the per-part ratio at which a name part counts as matched.
	PartMatchCutoff float64

	// CoveragePenaltyMinParts is the part count from which each missing
	// part reduces coverage by MissingPartPenalty.
	CoveragePenaltyMinParts int
	MissingPartPenalty      float64

	// SingleTokenPenalty scales the score of a one-word candidate against a multi-part name.
	SingleTokenPenalty float64

	// FullCoverageBonus scales the score when every part matched, capped at FullCoverageCap.
	FullCoverageBonus float64
	FullCoverageCap   float64

	// SplitMinLength is the length a spaceless candidate must exceed before
	// run-together splits are added to its variants.
	SplitMinLength int
}

// DefaultWeights returns the tuned default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Overall:                 22,
		FirstName:               25,
		MiddleName:              3,
		LastName:                30,
		Coverage:                20,
		PartMatchCutoff:         80,
		CoveragePenaltyMinParts: 3,
		MissingPartPenalty:      0.15,
		SingleTokenPenalty:      0.85,
		FullCoverageBonus:       1.02,
		FullCoverageCap:         95,
		SplitMinLength:          6,
	}
}

// Scorer computes how well a candidate string matches a user name.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer using weights.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the match score of candidate against name in [0, 100],
// rounded to one decimal place. Empty inputs score 0.
func (s *Scorer) Score(candidate, name string) float64 {
	return s.scoreProfile(s.candidateForms(candidate), newProfile("", name))
}

// nameProfile is a user name prepared for repeated scoring.
type nameProfile struct {
	id       string
	name     string   // trimmed display name
	variants []string // normalized name variants
	parts    []string // normalized tokens longer than one rune
}

func newProfile(id, name string) nameProfile {
	name = strings.TrimSpace(name)
	p := nameProfile{id: id, name: name}
	if name == "" {
		return p
	}
	for _, v := range commaVariants(name) {
		p.variants = append(p.variants, textnorm.Normalize(v))
	}
	p.parts = nameParts(textnorm.Normalize(name))
	return p
}

// candidateVariant is one normalized reading of a candidate.
type candidateVariant struct {
	normalized string
	parts      []string
	singleWord bool
}

func (s *Scorer) candidateForms(candidate string) []candidateVariant {
	if candidate == "" {
		return nil
	}
	variants := commaVariants(candidate)
	if utf8.RuneCountInString(candidate) > s.weights.SplitMinLength && !strings.Contains(candidate, " ") {
		variants = append(variants, NameSplits(candidate)...)
	}

	forms := make([]candidateVariant, 0, len(variants))
	for _, v := range variants {
		norm := textnorm.Normalize(v)
		forms = append(forms, candidateVariant{
			normalized: norm,
			parts:      nameParts(norm),
			singleWord: len(strings.Fields(norm)) == 1,
		})
	}
	return forms
}

func (s *Scorer) scoreProfile(candidates []candidateVariant, user nameProfile) float64 {
	if len(candidates) == 0 || user.name == "" {
		return MinScore
	}

	for _, uv := range user.variants {
		for _, cv := range candidates {
			if uv != "" && cv.normalized == uv {
				return ExactMatchScore
			}
		}
	}

	w := s.weights
	best := 0.0
	for _, uv := range user.variants {
		for _, cv := range candidates {
			tokenSimilarity := float64(max(
				fuzz.TokenSetRatio(cv.normalized, uv),
				fuzz.TokenSortRatio(cv.normalized, uv),
			)) / 100
			overall := tokenSimilarity * w.Overall

			if len(user.parts) == 0 || len(cv.parts) == 0 {
				continue
			}

			var first, middle, last float64
			matched := 0
			total := len(user.parts)
			for i, userPart := range user.parts {
				partBest := bestPartRatio(userPart, cv.parts)
				if partBest >= w.PartMatchCutoff {
					matched++
				}
				switch {
				case i == 0:
					first = partBest
				case i == total-1:
					last = partBest
				default:
					middle = max(middle, partBest)
				}
			}

			partsScore := first/100*w.FirstName + middle/100*w.MiddleName + last/100*w.LastName

			coverage := float64(matched) / float64(total)
			if missing := total - matched; total >= w.CoveragePenaltyMinParts && missing > 0 {
				coverage *= 1 - w.MissingPartPenalty*float64(missing)
				coverage = max(coverage, 0)
			}
			coverageScore := coverage * w.Coverage

			score := overall + partsScore + coverageScore

			multiPart := total > 1
			if cv.singleWord && multiPart {
				score *= w.SingleTokenPenalty
			}
			if matched == total && multiPart {
				score = min(score*w.FullCoverageBonus, w.FullCoverageCap)
			}

			best = max(best, score)
		}
	}

	return min(MaxScore, max(MinScore, roundTo(best, 1)))
}

func bestPartRatio(userPart string, candidateParts []string) float64 {
	best := 0
	for _, cp := range candidateParts {
		if cp == userPart {
			return 100
		}
		best = max(best, fuzz.Ratio(userPart, cp))
	}
	return float64(best)
}

// commaVariants returns s, plus for comma separated input a comma free form
// and, when there are exactly two non-empty parts, the parts swapped
// ("Smith, John" gives "John Smith").
func commaVariants(s string) []string {
	variants := []string{s}
	if !strings.Contains(s, ",") {
		return variants
	}
	variants = append(variants, strings.ReplaceAll(s, ",", " "))
	parts := strings.Split(s, ",")
	if len(parts) == 2 {
		a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if a != "" && b != "" {
			variants = append(variants, b+" "+a)
		}
	}
	return variants
}

// nameParts returns the tokens of a normalized name that are longer than one rune.
func nameParts(normalized string) []string {
	var parts []string
	for _, tok := range strings.Fields(normalized) {
		if utf8.RuneCountInString(tok) > 1 {
			parts = append(parts, tok)
		}
	}
	return parts
}

// roundTo rounds v to places decimals, sending exact halves to the even digit.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}
