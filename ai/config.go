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


package ai

import (
	"errors"
	"strings"
)

const (
	// DefaultDimensions is the vector length of the default embedding model.
	DefaultDimensions = 384

	defaultHost           = "http://localhost:11434/v1"
	defaultEmbeddingModel = "all-minilm"
	defaultTokenizerModel = "text-embedding-ada-002"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// Dimensions is the length of vectors the embedding model produces.
	// Empty texts embed to a zero vector of this length.
	// Default: 384
	Dimensions int

	// TokenizerModel selects the token encoding used for usage accounting.
	// Unknown models fall back to a generic encoding.
	TokenizerModel string

	// APIToken authenticates against hosted services. Local OpenAI-compatible
	// servers accept any value.
	APIToken string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDimensions sets the embedding vector length.
func WithDimensions(dimensions int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dimensions
	}
}

// WithTokenizerModel sets the model used to count tokens.
func WithTokenizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.TokenizerModel = model
	}
}

// WithAPIToken sets the API token.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible embedding server.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  defaultHost,
		EmbeddingModel: defaultEmbeddingModel,
		Dimensions:     DefaultDimensions,
		TokenizerModel: defaultTokenizerModel,
		APIToken:       "none",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("all-minilm"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.TokenizerModel == "" {
		c.TokenizerModel = defaultTokenizerModel
	}
	if c.APIToken == "" {
		c.APIToken = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Dimensions <= 0 {
		return errors.New("ai config: Dimensions must be greater than 0")
	}
	return nil
}
