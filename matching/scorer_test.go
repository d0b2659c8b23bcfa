package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_Score(t *testing.T) {
	s := NewScorer(DefaultWeights())

	t.Run("exact match", func(t *testing.T) {
		assert.Equal(t, ExactMatchScore, s.Score("John Smith", "John Smith"))
	})

	t.Run("exact after normalization", func(t *testing.T) {
		assert.Equal(t, ExactMatchScore, s.Score("JOSÉ  martínez", "Jose Martinez"))
	})

	t.Run("comma inversion", func(t *testing.T) {
		score := s.Score("Smith, John", "John Smith")
		assert.GreaterOrEqual(t, score, 80.0)
		assert.Equal(t, ExactMatchScore, score)
	})

	t.Run("inverted user name", func(t *testing.T) {
		assert.Equal(t, ExactMatchScore, s.Score("John Smith", "Smith, John"))
	})

	t.Run("typo", func(t *testing.T) {
		score := s.Score("Jon Smith", "John Smith")
		assert.GreaterOrEqual(t, score, 80.0)
		assert.LessOrEqual(t, score, DefaultWeights().FullCoverageCap)
	})

	t.Run("swapped order is capped below exact", func(t *testing.T) {
		assert.Equal(t, 95.0, s.Score("Smith John", "John Smith"))
	})

	t.Run("first name only is penalized", func(t *testing.T) {
		score := s.Score("John", "John Smith")
		assert.GreaterOrEqual(t, score, 40.0)
		assert.Less(t, score, DefaultThreshold)
	})

	t.Run("run together name", func(t *testing.T) {
		assert.Equal(t, ExactMatchScore, s.Score("JohnSmith", "John Smith"))
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Equal(t, MinScore, s.Score("", "John Smith"))
		assert.Equal(t, MinScore, s.Score("John Smith", ""))
		assert.Equal(t, MinScore, s.Score("John Smith", "   "))
	})

	t.Run("unrelated", func(t *testing.T) {
		assert.Less(t, s.Score("Emma Brown", "John Smith"), DefaultThreshold)
	})
}

func TestScorer_Range(t *testing.T) {
	s := NewScorer(DefaultWeights())
	candidates := []string{"John", "Jon Smith", "Smith, John", "JohnSmith", "x", "ACME LTD", "Olivia", "o'brien", "12345"}
	names := []string{"John Smith", "Emma Brown", "Olivia Smith", "Benjamin Lee", "Mary Ann de la Cruz", "Q"}

	for _, c := range candidates {
		for _, n := range names {
			score := s.Score(c, n)
			assert.GreaterOrEqual(t, score, MinScore, "%q vs %q", c, n)
			assert.LessOrEqual(t, score, MaxScore, "%q vs %q", c, n)
		}
	}
}

func TestScorer_CoverageNeverNegative(t *testing.T) {
	// Only the first-name and coverage components contribute, so a negative
	// coverage term would pull the score below the first-name points.
	w := DefaultWeights()
	w.Overall = 0
	w.MiddleName = 0
	w.LastName = 0
	w.SingleTokenPenalty = 1
	w.FullCoverageBonus = 1
	s := NewScorer(w)

	// One of eight parts matches, so seven are missing.
	score := s.Score("Anna Xyzq", "Anna Bella Carla Dora Emily Fiona Gwen Helen")
	assert.Equal(t, w.FirstName, score)
}

func TestScorer_CustomWeights(t *testing.T) {
	w := DefaultWeights()
	w.FullCoverageCap = 90
	s := NewScorer(w)

	assert.Equal(t, 90.0, s.Score("Smith John", "John Smith"))
	assert.Equal(t, w, s.Weights())
}

func TestCommaVariants(t *testing.T) {
	assert.Equal(t, []string{"John Smith"}, commaVariants("John Smith"))
	assert.Equal(t, []string{"Smith, John", "Smith  John", "John Smith"}, commaVariants("Smith, John"))
	assert.Equal(t, []string{"a,b,c", "a b c"}, commaVariants("a,b,c"))
	assert.Equal(t, []string{"Smith,", "Smith "}, commaVariants("Smith,"))
}

func TestNameParts(t *testing.T) {
	assert.Equal(t, []string{"john", "smith"}, nameParts("john q smith"))
	assert.Empty(t, nameParts(""))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 72.2, roundTo(72.25, 1))
	assert.Equal(t, 72.8, roundTo(72.75, 1))
	assert.Equal(t, 72.3, roundTo(72.26, 1))
	assert.Equal(t, 95.0, roundTo(95.04, 1))
}
