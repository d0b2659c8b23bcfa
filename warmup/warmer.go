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


package warmup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/storage"
)

// Config holds configuration for a warm-up run.
type Config struct {
	// BatchSize is the number of transactions fetched per page
	BatchSize int

	// ReportInterval is how often progress is reported (number of transactions)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Concurrency is the number of batch requests in flight at once. Each
	// page is split into at most this many requests.
	Concurrency int

	// Preprocess selects the cache entries to fill. Searches preprocess
	// by default, so warm-up does too.
	Preprocess bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Concurrency:    4,
		Preprocess:     true,
	}
}

// EmbeddingSource embeds descriptions in batches and caches the results,
// returning the tokens the texts consume. *search.Engine satisfies it.
type EmbeddingSource interface {
	WarmEmbeddings(ctx context.Context, texts []string, preprocess bool) (int, error)
}

// Result summarises a warm-up run.
type Result struct {
	Transactions int // transactions visited
	Embedded     int // descriptions embedded or found in cache
	Skipped      int // transactions with an empty description
	Tokens       int // tokens reported for the embedded descriptions
	Elapsed      time.Duration
}

// Warmer fills the embedding cache from stored transactions.
type Warmer struct {
	repo     storage.TransactionRepository
	source   EmbeddingSource
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// Option configures a Warmer.
type Option func(*Warmer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Warmer) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWarmer creates a Warmer. A nil config selects DefaultConfig and a nil
// progress writer disables progress output.
func NewWarmer(repo storage.TransactionRepository, source EmbeddingSource, config *Config, progress io.Writer, opts ...Option) (*Warmer, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if source == nil {
		return nil, ErrEmbeddingSourceRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}

	w := &Warmer{
		repo:     repo,
		source:   source,
		config:   config,
		progress: progress,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "warmer")

	return w, nil
}

// Run embeds every stored transaction description. It stops at the first
// embedding that still fails after MaxRetries attempts.
func (w *Warmer) Run(ctx context.Context) (Result, error) {
	var result Result
	start := time.Now()

	total, err := w.repo.CountTransactions(ctx)
	if err != nil {
		return result, fmt.Errorf("counting transactions: %w", err)
	}
	w.logger.Info("starting cache warm-up",
		"transactions", total,
		"batchSize", w.config.BatchSize,
		"concurrency", w.config.Concurrency)

	pool, err := ants.NewPool(max(w.config.Concurrency, 1))
	if err != nil {
		return result, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	tracker := NewProgressTracker(w.progress, total, w.config.ReportInterval)
	tracker.Start()

	iter := NewTransactionIterator(w.repo, w.config.BatchSize)
	err = iter.ForEach(ctx, func(batch []*core.Transaction) error {
		return w.warmBatch(ctx, pool, batch, tracker, &result)
	})
	result.Elapsed = time.Since(start)
	if err != nil {
		w.logger.Error("cache warm-up failed", "err", err, "embedded", result.Embedded)
		return result, err
	}

	tracker.Finish()
	w.logger.Info("cache warm-up complete",
		"transactions", result.Transactions,
		"embedded", result.Embedded,
		"skipped", result.Skipped,
		"tokens", result.Tokens,
		"elapsed", result.Elapsed)
	return result, nil
}

func (w *Warmer) warmBatch(ctx context.Context, pool *ants.Pool, batch []*core.Transaction, tracker *ProgressTracker, result *Result) error {
	// Searches embed every non-empty description, whitespace included.
	todo := make([]*core.Transaction, 0, len(batch))
	for _, txn := range batch {
		result.Transactions++
		if txn.Description == "" {
			result.Skipped++
			tracker.Increment(1)
			continue
		}
		todo = append(todo, txn)
	}
	if len(todo) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for chunk := range slices.Chunk(todo, chunkSize(len(todo), w.config.Concurrency)) {
		texts := make([]string, len(chunk))
		ids := make([]string, len(chunk))
		for i, txn := range chunk {
			texts[i], ids[i] = txn.Description, txn.ID
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			var tokens int
			err := RetryWithBackoff(ctx, func() error {
				var err error
				tokens, err = w.source.WarmEmbeddings(ctx, texts, w.config.Preprocess)
				return err
			}, w.config.MaxRetries, w.config.RetryDelay)
			if err != nil {
				fail(fmt.Errorf("embedding transactions %s: %w", strings.Join(ids, ", "), err))
				return
			}
			mu.Lock()
			result.Embedded += len(chunk)
			result.Tokens += tokens
			mu.Unlock()
			tracker.Increment(len(chunk))
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	return firstErr
}

// chunkSize spreads n items over at most workers requests.
func chunkSize(n, workers int) int {
	workers = max(workers, 1)
	return max((n+workers-1)/workers, 1)
}
