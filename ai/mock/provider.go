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


package mock

import "github.com/poiesic/payermatch/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and tokenizer instances.
type MockProvider struct {
	embedder  *MockEmbedder
	tokenizer *MockTokenizer
	closed    bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockTokenizer() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		tokenizer: NewMockTokenizer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, tokenizer *MockTokenizer) ai.AIProvider {
	return &MockProvider{
		embedder:  embedder,
		tokenizer: tokenizer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Tokenizer returns the mock tokenizer.
func (p *MockProvider) Tokenizer() ai.Tokenizer {
	return p.tokenizer
}

// Dimensions returns the mock embedder's vector length.
func (p *MockProvider) Dimensions() int {
	return p.embedder.Dimensions()
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockTokenizer returns the underlying mock tokenizer for test assertions.
func (p *MockProvider) GetMockTokenizer() *MockTokenizer {
	return p.tokenizer
}
