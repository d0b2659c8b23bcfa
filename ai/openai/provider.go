// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/payermatch/ai"
)

// Provider bundles the embedder and tokenizer for one embedding model.
type Provider struct {
	dimensions int
	embedder   *Embedder
	tokenizer  ai.Tokenizer
	closed     atomic.Bool
	logger     *slog.Logger
}

// NewProvider validates config and creates the services it describes. No
// request is made until the first embedding is needed.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		dimensions: config.Dimensions,
		embedder:   embedder,
		tokenizer:  NewTokenizer(config.TokenizerModel),
		logger:     slog.Default().With("component", "openai-provider"),
	}
	p.logger.Debug("provider created",
		"host", config.EmbeddingHost,
		"model", config.EmbeddingModel,
		"tokenizer", config.TokenizerModel,
		"dimensions", config.Dimensions)
	return p, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Tokenizer returns the token counter.
func (p *Provider) Tokenizer() ai.Tokenizer {
	return p.tokenizer
}

// Dimensions returns the configured vector length.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// Close marks the provider closed. The HTTP client holds no resources that
// need explicit release, so repeated calls are harmless.
func (p *Provider) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		p.logger.Debug("provider closed")
	}
	return nil
}
