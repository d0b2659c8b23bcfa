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


// Package config loads payermatch settings from a TOML file.
//
// Every key is optional; missing keys keep the values from Default.
//
//	[server]
//	addr = ":8000"
//
//	[data]
//	users_path = "data/users.csv"
//	transactions_path = "data/transactions.csv"
//
//	[ai]
//	embedding_host = "http://localhost:11434"
//	embedding_model = "all-minilm"
//
//	[search]
//	threshold = 0.4
//	limit = 20
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/payermatch/ai"
	"github.com/poiesic/payermatch/core"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	AI       AIConfig       `toml:"ai"`
	Matching MatchingConfig `toml:"matching"`
	Search   SearchConfig   `toml:"search"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// WarmCache embeds every stored description before serving.
	WarmCache bool `toml:"warm_cache"`
}

// DataConfig locates the source data and the record store.
type DataConfig struct {
	UsersPath        string `toml:"users_path"`
	TransactionsPath string `toml:"transactions_path"`

	// DBPath is the badger directory. Empty keeps records in memory.
	DBPath string `toml:"db_path"`
}

// AIConfig mirrors ai.Config.
type AIConfig struct {
	EmbeddingHost  string `toml:"embedding_host"`
	EmbeddingModel string `toml:"embedding_model"`
	Dimensions     int    `toml:"dimensions"`
	TokenizerModel string `toml:"tokenizer_model"`
	APIToken       string `toml:"api_token"`
}

// MatchingConfig holds name matching defaults.
type MatchingConfig struct {
	// Threshold is the default minimum match score, 0 to 100.
	Threshold float64 `toml:"threshold"`
}

// SearchConfig holds semantic search defaults.
type SearchConfig struct {
	Threshold     float64 `toml:"threshold"`
	Limit         int     `toml:"limit"`
	CacheCapacity int     `toml:"cache_capacity"`

	// PoolSize is the number of scoring workers. Zero selects the CPU count.
	PoolSize int `toml:"pool_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr: ":8000",
		},
		Data: DataConfig{
			UsersPath:        "data/users.csv",
			TransactionsPath: "data/transactions.csv",
		},
		AI: AIConfig{
			EmbeddingHost:  aiDefaults.EmbeddingHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			Dimensions:     aiDefaults.Dimensions,
			TokenizerModel: aiDefaults.TokenizerModel,
			APIToken:       aiDefaults.APIToken,
		},
		Matching: MatchingConfig{
			Threshold: 60,
		},
		Search: SearchConfig{
			Threshold:     0.4,
			Limit:         20,
			CacheCapacity: 10000,
		},
	}
}

// Load reads the TOML file at path over the defaults. Unknown keys are
// rejected so typos do not go unnoticed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := core.ValidateMatchThreshold(c.Matching.Threshold); err != nil {
		return fmt.Errorf("%w: matching.threshold: %w", ErrInvalidConfig, err)
	}
	if err := core.ValidateSimilarityThreshold(c.Search.Threshold); err != nil {
		return fmt.Errorf("%w: search.threshold: %w", ErrInvalidConfig, err)
	}
	if c.Search.Limit < 1 || c.Search.Limit > 100 {
		return fmt.Errorf("%w: search.limit must be between 1 and 100", ErrInvalidConfig)
	}
	if c.Search.CacheCapacity < 0 || c.Search.PoolSize < 0 {
		return fmt.Errorf("%w: search sizes must not be negative", ErrInvalidConfig)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig converts the [ai] table into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithDimensions(c.AI.Dimensions),
		ai.WithTokenizerModel(c.AI.TokenizerModel),
		ai.WithAPIToken(c.AI.APIToken),
	)
}

// Write encodes the configuration as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
