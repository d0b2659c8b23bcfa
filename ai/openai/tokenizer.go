package openai

import (
	"github.com/poiesic/payermatch/ai"
	"github.com/tmc/langchaingo/llms"
)

// Tokenizer implements ai.Tokenizer with the tiktoken encoding of a model.
type Tokenizer struct {
	model string
}

// NewTokenizer returns a tokenizer for model. Models without a known
// encoding fall back to a generic one.
func NewTokenizer(model string) ai.Tokenizer {
	return &Tokenizer{model: model}
}

// CountTokens returns the number of tokens text encodes to.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return llms.CountTokens(t.model, text)
}
