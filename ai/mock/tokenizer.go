package mock

import (
	"strings"
	"sync/atomic"
)

// MockTokenizer is a test double for ai.Tokenizer. By default each
// whitespace separated word counts as one token.
type MockTokenizer struct {
	// CountTokensFunc is called by CountTokens if set.
	CountTokensFunc func(text string) int

	callCount atomic.Int64
}

// NewMockTokenizer creates a word-counting mock tokenizer.
func NewMockTokenizer() *MockTokenizer {
	return &MockTokenizer{}
}

// CountTokens returns the number of words in text.
func (m *MockTokenizer) CountTokens(text string) int {
	m.callCount.Add(1)
	if m.CountTokensFunc != nil {
		return m.CountTokensFunc(text)
	}
	return len(strings.Fields(text))
}

// CallCount returns the number of CountTokens calls.
func (m *MockTokenizer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and any injected behavior.
func (m *MockTokenizer) Reset() {
	m.callCount.Store(0)
	m.CountTokensFunc = nil
}
