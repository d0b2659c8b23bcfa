package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/payermatch/ai"
	"github.com/poiesic/payermatch/core"
	"golang.org/x/sync/singleflight"
)

// DefaultThreshold is the default minimum cosine similarity for a search hit.
const DefaultThreshold = 0.4

// SearchOptions controls FindSimilarTransactions.
type SearchOptions struct {
	// Threshold is the minimum cosine similarity a transaction needs to be returned.
	Threshold float64

	// IncludeDescription copies the description and amount into each result.
	IncludeDescription bool

	// Preprocess condenses query and descriptions with Preprocess before embedding.
	Preprocess bool

	// Limit caps the number of results. Zero or less means no limit.
	Limit int
}

// DefaultSearchOptions returns the default search options.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Threshold:          DefaultThreshold,
		IncludeDescription: true,
		Preprocess:         true,
	}
}

// Engine finds transactions whose descriptions are semantically similar to
// a query. It is safe for concurrent use.
type Engine struct {
	embedder   ai.Embedder
	tokenizer  ai.Tokenizer
	dimensions int
	cache      *LRUCache
	group      singleflight.Group
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithCache replaces the engine's embedding cache.
func WithCache(cache *LRUCache) Option {
	return func(e *Engine) error {
		if cache != nil {
			e.cache = cache
		}
		return nil
	}
}

// WithCacheCapacity sets the number of embeddings the engine keeps.
// Default is DefaultCacheCapacity.
func WithCacheCapacity(capacity int) Option {
	return func(e *Engine) error {
		e.cache = NewLRUCache(capacity)
		return nil
	}
}

// WithDimensions overrides the embedding length reported by the provider.
// It sizes the zero vector returned for empty text.
func WithDimensions(dimensions int) Option {
	return func(e *Engine) error {
		if dimensions <= 0 {
			return ErrInvalidDimensions
		}
		e.dimensions = dimensions
		return nil
	}
}

// WithPoolSize sets the number of transactions embedded concurrently.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// NewEngine creates a search engine using the provider's embedder and tokenizer.
func NewEngine(provider ai.AIProvider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		embedder:   provider.Embedder(),
		tokenizer:  provider.Tokenizer(),
		dimensions: provider.Dimensions(),
		cache:      NewLRUCache(DefaultCacheCapacity),
		pool:       pool,
		logger:     slog.Default(),
	}
	if e.dimensions <= 0 {
		e.dimensions = ai.DefaultDimensions
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.pool.Release()
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "search-engine")

	return e, nil
}

// GetEmbedding returns the embedding of text and the number of tokens it
// consumed. Results are cached by text and preprocess flag. Concurrent
// callers asking for the same uncached key share one model call.
//
// Empty text, or text that preprocesses to nothing, yields a zero vector
// and zero tokens. The returned vector is shared with the cache and must
// not be modified.
func (e *Engine) GetEmbedding(ctx context.Context, text string, preprocess bool) ([]float32, int, error) {
	if text == "" {
		return make([]float32, e.dimensions), 0, nil
	}

	key := core.ContentKey(text, preprocess)
	if cached, ok := e.cache.Get(key); ok {
		return cached.Vector, cached.Tokens, nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		// An earlier flight may have filled the key after our lookup.
		if cached, ok := e.cache.Get(key); ok {
			return cached, nil
		}

		processed := text
		if preprocess {
			processed = Preprocess(text)
		}

		if processed == "" {
			entry := Embedding{Vector: make([]float32, e.dimensions)}
			e.cache.Set(key, entry)
			return entry, nil
		}

		vector, err := e.embedder.EmbedText(ctx, processed)
		if err != nil {
			e.logger.Error("error generating embedding", "length", len(processed), "err", err)
			return nil, err
		}
		entry := Embedding{Vector: vector, Tokens: e.tokenizer.CountTokens(processed)}
		e.cache.Set(key, entry)
		return entry, nil
	})
	if err != nil {
		return nil, 0, err
	}

	entry := v.(Embedding)
	return entry.Vector, entry.Tokens, nil
}

// WarmEmbeddings fills the cache for texts with a single batch request and
// returns the tokens the texts consume, counting cached texts too. Texts
// already cached are not re-embedded and empty texts are ignored. Nothing is
// cached when the batch request fails.
func (e *Engine) WarmEmbeddings(ctx context.Context, texts []string, preprocess bool) (int, error) {
	tokens := 0
	pending := make(map[string]int) // key -> index into batch
	var (
		keys  []string
		batch []string
	)
	for _, text := range texts {
		if text == "" {
			continue
		}
		key := core.ContentKey(text, preprocess)
		if cached, ok := e.cache.Get(key); ok {
			tokens += cached.Tokens
			continue
		}
		if _, ok := pending[key]; ok {
			continue
		}

		processed := text
		if preprocess {
			processed = Preprocess(text)
		}
		if processed == "" {
			e.cache.Set(key, Embedding{Vector: make([]float32, e.dimensions)})
			continue
		}
		pending[key] = len(batch)
		keys = append(keys, key)
		batch = append(batch, processed)
	}
	if len(batch) == 0 {
		return tokens, nil
	}

	vectors, err := e.embedder.EmbedTexts(ctx, batch)
	if err != nil {
		e.logger.Error("error generating batch embeddings", "count", len(batch), "err", err)
		return 0, err
	}
	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingCount, len(vectors), len(batch))
	}

	entries := make([]Embedding, len(batch))
	for i, processed := range batch {
		entries[i] = Embedding{Vector: vectors[i], Tokens: e.tokenizer.CountTokens(processed)}
	}
	for i, key := range keys {
		e.cache.Set(key, entries[i])
	}

	// Duplicates of a freshly embedded text are counted once per occurrence.
	for _, text := range texts {
		if text == "" {
			continue
		}
		if i, ok := pending[core.ContentKey(text, preprocess)]; ok {
			tokens += entries[i].Tokens
		}
	}
	e.logger.Debug("warmed embeddings", "requested", len(texts), "embedded", len(batch))
	return tokens, nil
}

// ComputeSimilarity returns the cosine similarity of a and b in [-1, 1].
// A zero vector has similarity 0 with everything.
func ComputeSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return max(-1, min(1, sim)), nil
}

// FindSimilarTransactions returns the transactions whose descriptions are at
// least opts.Threshold similar to query, best first, and the tokens spent on
// the query plus the returned descriptions.
func (e *Engine) FindSimilarTransactions(ctx context.Context, query string, transactions map[string]core.Transaction, opts SearchOptions) ([]core.SimilarTransaction, int, error) {
	return e.FindSimilarTransactionsWithMonitor(ctx, query, transactions, opts, nil)
}

type scoredTransaction struct {
	similarity float64
	tokens     int
	scored     bool
}

// FindSimilarTransactionsWithMonitor is FindSimilarTransactions with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (e *Engine) FindSimilarTransactionsWithMonitor(
	ctx context.Context,
	query string,
	transactions map[string]core.Transaction,
	opts SearchOptions,
	monitor SearchMonitor,
) ([]core.SimilarTransaction, int, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	results := []core.SimilarTransaction{}
	if query == "" {
		monitor.Finish(results, 0)
		return results, 0, nil
	}

	queryVector, queryTokens, err := e.GetEmbedding(ctx, query, opts.Preprocess)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, 0, err
	}
	monitor.AfterQueryEmbedding(queryTokens)

	ids := make([]string, 0, len(transactions))
	for id, txn := range transactions {
		if txn.Description != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	scored := make([]scoredTransaction, len(ids))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	for i, id := range ids {
		wg.Add(1)
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			vector, tokens, err := e.GetEmbedding(ctx, transactions[id].Description, opts.Preprocess)
			if err != nil {
				fail(err)
				return
			}
			sim, err := ComputeSimilarity(queryVector, vector)
			if err != nil {
				fail(fmt.Errorf("transaction %s: %w", id, err))
				return
			}
			scored[i] = scoredTransaction{similarity: sim, tokens: tokens, scored: true}
			monitor.TransactionScored(id, sim)
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		e.logger.Error("error scoring transactions", "err", firstErr)
		return nil, 0, firstErr
	}

	tokensByID := make(map[string]int)
	for i, id := range ids {
		s := scored[i]
		if !s.scored || s.similarity < opts.Threshold {
			continue
		}
		hit := core.SimilarTransaction{
			ID:         id,
			Similarity: roundTo(s.similarity, 4),
		}
		if opts.IncludeDescription {
			txn := transactions[id]
			hit.HasDetails = true
			hit.Description = txn.Description
			hit.Amount = txn.Amount
		}
		results = append(results, hit)
		tokensByID[id] = s.tokens
	}

	slices.SortStableFunc(results, func(a, b core.SimilarTransaction) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	total := queryTokens
	for _, r := range results {
		total += tokensByID[r.ID]
	}

	e.logger.Debug("semantic search complete",
		"candidates", len(ids),
		"results", len(results),
		"tokens", total)
	monitor.Finish(results, total)

	return results, total, nil
}

// CacheStats returns the embedding cache counters.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

// Dimensions returns the embedding vector length.
func (e *Engine) Dimensions() int {
	return e.dimensions
}

// Close releases the engine's worker pool.
func (e *Engine) Close() {
	e.pool.Release()
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}
