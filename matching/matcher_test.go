package matching

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/payermatch/core"
)

func testUsers() map[string]core.User {
	return map[string]core.User{
		"user1": {ID: "user1", Name: "John Smith"},
		"user2": {ID: "user2", Name: "Emma Brown"},
		"user3": {ID: "user3", Name: "Olivia Smith"},
		"user4": {ID: "user4", Name: "Benjamin Lee"},
		"user5": {ID: "user5", Name: "David Wood"},
		"user6": {ID: "user6", Name: "Sarah Connor"},
		"user7": {ID: "user7", Name: ""},
	}
}

func newTestMatcher(t *testing.T, opts ...Option) *UserMatcher {
	t.Helper()
	m, err := NewUserMatcher(testUsers(), opts...)
	require.NoError(t, err)
	return m
}

func TestUserMatcher_FindMatchingUsers(t *testing.T) {
	m := newTestMatcher(t)
	assert.Equal(t, 7, m.UserCount())

	tests := []struct {
		name        string
		description string
		wantTop     string
		wantAbsent  []string
	}{
		{
			name:        "standard description",
			description: "From John Smith for Deel, ref ABC123ACC//123456//CNTR",
			wantTop:     "user1",
			wantAbsent:  []string{"user2", "user7"},
		},
		{
			name:        "transfer description",
			description: "Transfer from Emma Brown for Deel, ref DEF456ACC//789012//CNTR",
			wantTop:     "user2",
			wantAbsent:  []string{"user1", "user7"},
		},
		{
			name:        "comma inverted",
			description: "From Smith, John for Deel, ref ABC123ACC//123456//CNTR",
			wantTop:     "user1",
		},
		{
			name:        "camel case",
			description: "From DavidWood for Deel",
			wantTop:     "user5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := m.FindMatchingUsers(tt.description, DefaultThreshold)
			require.NotEmpty(t, matches)
			assert.Equal(t, tt.wantTop, matches[0].ID)
			assert.Equal(t, ExactMatchScore, matches[0].Score)
			assert.NotEmpty(t, matches[0].Name)

			for i, match := range matches {
				assert.GreaterOrEqual(t, match.Score, DefaultThreshold)
				if i > 0 {
					assert.GreaterOrEqual(t, matches[i-1].Score, match.Score, "results must be sorted")
				}
			}
			ids := make([]string, 0, len(matches))
			for _, match := range matches {
				ids = append(ids, match.ID)
			}
			for _, absent := range tt.wantAbsent {
				assert.NotContains(t, ids, absent)
			}
		})
	}
}

func TestUserMatcher_Thresholds(t *testing.T) {
	m := newTestMatcher(t)
	description := "From John Smith for Deel, ref ABC123ACC//123456//CNTR"

	strict := m.FindMatchingUsers(description, 100)
	require.Len(t, strict, 1)
	assert.Equal(t, "user1", strict[0].ID)

	loose := m.FindMatchingUsers(description, 0)
	assert.Len(t, loose, 6, "every named user passes a zero threshold")
}

func TestUserMatcher_EmptyDescription(t *testing.T) {
	m := newTestMatcher(t)

	got := m.FindMatchingUsers("", DefaultThreshold)
	require.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, m.FindMatchingUsers("999999", DefaultThreshold))
}

func TestUserMatcher_AccentedNameMatchesExactly(t *testing.T) {
	m, err := NewUserMatcher(map[string]core.User{
		"u1": {ID: "u1", Name: "Élodie Martin"},
		"u2": {ID: "u2", Name: "Emma Brown"},
	})
	require.NoError(t, err)

	got := m.FindMatchingUsers("From Élodie Martin for Deel, ref ABC123ACC//123456//CNTR", DefaultThreshold)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].ID)
	assert.Equal(t, ExactMatchScore, got[0].Score)
	assert.Equal(t, m.ScoreUser("Élodie Martin", "u1"), got[0].Score)
}

func TestUserMatcher_ScoreUser(t *testing.T) {
	m := newTestMatcher(t)

	assert.Equal(t, ExactMatchScore, m.ScoreUser("John Smith", "user1"))
	assert.GreaterOrEqual(t, m.ScoreUser("John", "user1"), 40.0)
	assert.GreaterOrEqual(t, m.ScoreUser("Jon Smith", "user1"), 80.0)
	assert.GreaterOrEqual(t, m.ScoreUser("Smith John", "user1"), 80.0)
	assert.Equal(t, MinScore, m.ScoreUser("John Smith", "user7"))
	assert.Equal(t, MinScore, m.ScoreUser("John Smith", "missing"))
}

func TestUserMatcher_Options(t *testing.T) {
	t.Run("nil logger falls back to default", func(t *testing.T) {
		m := newTestMatcher(t, WithLogger(nil))
		assert.NotNil(t, m.logger)
	})

	t.Run("invalid weights", func(t *testing.T) {
		w := DefaultWeights()
		w.PartMatchCutoff = 150
		_, err := NewUserMatcher(testUsers(), WithWeights(w))
		assert.ErrorIs(t, err, ErrInvalidWeights)
	})

	t.Run("nil extractor", func(t *testing.T) {
		_, err := NewUserMatcher(testUsers(), WithExtractor(nil))
		assert.ErrorIs(t, err, ErrExtractorRequired)
	})

	t.Run("custom extractor", func(t *testing.T) {
		m := newTestMatcher(t, WithExtractor(NewExtractor(DefaultRules()[6])))
		assert.Empty(t, m.FindMatchingUsers("From John Smith for Deel", DefaultThreshold))
		assert.NotEmpty(t, m.FindMatchingUsers("cc John Smith", DefaultThreshold))
	})
}

func TestUserMatcher_Concurrent(t *testing.T) {
	m := newTestMatcher(t)
	descriptions := []string{
		"From John Smith for Deel, ref ABC123ACC//123456//CNTR",
		"Transfer from Emma Brown for Deel, ref DEF456ACC//789012//CNTR",
		"From Smith, John for Deel",
		"Payment from Sarah Connor, ref 12345",
	}

	want := make([][]core.UserMatch, len(descriptions))
	for i, d := range descriptions {
		want[i] = m.FindMatchingUsers(d, DefaultThreshold)
	}

	var wg sync.WaitGroup
	for range 8 {
		for i, d := range descriptions {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Equal(t, want[i], m.FindMatchingUsers(d, DefaultThreshold))
			}()
		}
	}
	wg.Wait()
}
