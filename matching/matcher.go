package matching

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/payermatch/core"
)

// DefaultThreshold is the minimum score a user needs to be reported as a match.
const DefaultThreshold = 55.0

// UserMatcher finds the users a transaction description most plausibly
// refers to. It is immutable after construction and safe for concurrent use.
type UserMatcher struct {
	profiles  []nameProfile
	byID      map[string]int
	extractor *Extractor
	scorer    *Scorer
	logger    *slog.Logger
}

// Option configures a UserMatcher.
type Option func(*UserMatcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *UserMatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithWeights replaces the default scoring weights.
func WithWeights(weights Weights) Option {
	return func(m *UserMatcher) error {
		if weights.PartMatchCutoff < 0 || weights.PartMatchCutoff > MaxScore {
			return ErrInvalidWeights
		}
		m.scorer = NewScorer(weights)
		return nil
	}
}

// WithExtractor replaces the default candidate extractor.
func WithExtractor(extractor *Extractor) Option {
	return func(m *UserMatcher) error {
		if extractor == nil {
			return ErrExtractorRequired
		}
		m.extractor = extractor
		return nil
	}
}

// NewUserMatcher prepares users for matching. Users are ordered by ID so
// results are deterministic regardless of map iteration order.
func NewUserMatcher(users map[string]core.User, opts ...Option) (*UserMatcher, error) {
	m := &UserMatcher{
		byID:      make(map[string]int, len(users)),
		extractor: NewExtractor(),
		scorer:    NewScorer(DefaultWeights()),
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.logger = m.logger.With("component", "user-matcher")

	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	m.profiles = make([]nameProfile, 0, len(ids))
	for _, id := range ids {
		m.byID[id] = len(m.profiles)
		m.profiles = append(m.profiles, newProfile(id, users[id].Name))
	}

	m.logger.Debug("user matcher ready", "users", len(m.profiles))
	return m, nil
}

// Extract returns the name candidates found in description.
func (m *UserMatcher) Extract(description string) []string {
	return m.extractor.Extract(description)
}

// ScoreUser returns the score of candidate against the named user, or 0
// when the user is unknown or has no name.
func (m *UserMatcher) ScoreUser(candidate, userID string) float64 {
	idx, ok := m.byID[userID]
	if !ok {
		return MinScore
	}
	return m.scorer.scoreProfile(m.scorer.candidateForms(candidate), m.profiles[idx])
}

// FindMatchingUsers scores every named user against the candidates
// extracted from description and returns those scoring at least threshold,
// best first. Ties are ordered by user ID.
func (m *UserMatcher) FindMatchingUsers(description string, threshold float64) []core.UserMatch {
	matches := []core.UserMatch{}
	if strings.TrimSpace(description) == "" {
		return matches
	}

	candidates := m.extractor.Extract(description)
	if len(candidates) == 0 {
		m.logger.Debug("no name candidates extracted", "description", description)
		return matches
	}

	forms := make([][]candidateVariant, len(candidates))
	for i, c := range candidates {
		forms[i] = m.scorer.candidateForms(c)
	}

	for _, profile := range m.profiles {
		if profile.name == "" {
			continue
		}
		best := MinScore
		for _, f := range forms {
			best = max(best, m.scorer.scoreProfile(f, profile))
		}
		if best >= threshold {
			matches = append(matches, core.UserMatch{
				ID:    profile.id,
				Score: best,
				Name:  profile.name,
			})
		}
	}

	slices.SortStableFunc(matches, func(a, b core.UserMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	m.logger.Debug("matched description",
		"candidates", len(candidates),
		"matches", len(matches),
		"threshold", threshold)

	return matches
}

// UserCount returns the number of users known to the matcher.
func (m *UserMatcher) UserCount() int {
	return len(m.profiles)
}
