package warmup

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/payermatch/ai/mock"
	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	calls    map[string]int
	batches  [][]string
	failures map[string]int // remaining failures per text
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: map[string]int{}, failures: map[string]int{}}
}

func (f *fakeSource) WarmEmbeddings(_ context.Context, texts []string, _ bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, texts)
	var failed bool
	for _, text := range texts {
		f.calls[text]++
		if f.failures[text] > 0 {
			f.failures[text]--
			failed = true
		}
	}
	if failed {
		return 0, errors.New("embedding host unavailable")
	}
	return 2 * len(texts), nil
}

func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	cfg.ReportInterval = 1
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestNewWarmer_Validation(t *testing.T) {
	repo := setupTransactions(t, 0)

	_, err := NewWarmer(nil, newFakeSource(), nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewWarmer(repo, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbeddingSourceRequired)

	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	_, err = NewWarmer(repo, newFakeSource(), cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestWarmer_Run(t *testing.T) {
	repo := setupTransactions(t, 5)
	require.NoError(t, repo.AddTransactions(context.Background(), &core.Transaction{ID: "tx999"}))

	source := newFakeSource()
	var out bytes.Buffer
	warmer, err := NewWarmer(repo, source, fastConfig(), &out)
	require.NoError(t, err)

	result, err := warmer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, result.Transactions)
	for _, texts := range source.batches {
		assert.NotContains(t, texts, "")
	}
	assert.Equal(t, 5, result.Embedded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 10, result.Tokens)
	assert.Len(t, source.calls, 5)
	assert.Contains(t, out.String(), "6/6")
}

func TestWarmer_RetriesTransientFailures(t *testing.T) {
	repo := setupTransactions(t, 1)
	source := newFakeSource()
	source.failures["Payment from User 0 for Deel"] = 2

	warmer, err := NewWarmer(repo, source, fastConfig(), nil)
	require.NoError(t, err)

	result, err := warmer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Embedded)
	assert.Equal(t, 3, source.calls["Payment from User 0 for Deel"])
}

func TestWarmer_FailsAfterMaxRetries(t *testing.T) {
	repo := setupTransactions(t, 3)
	source := newFakeSource()
	source.failures["Payment from User 1 for Deel"] = 10

	warmer, err := NewWarmer(repo, source, fastConfig(), nil)
	require.NoError(t, err)

	_, err = warmer.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tx001")
	assert.Equal(t, 3, source.calls["Payment from User 1 for Deel"])
}

func TestWarmer_FillsEngineCache(t *testing.T) {
	repo := setupTransactions(t, 4)
	provider := mock.NewMockProvider()
	engine, err := search.NewEngine(provider, search.WithPoolSize(2))
	require.NoError(t, err)
	defer engine.Close()

	warmer, err := NewWarmer(repo, engine, fastConfig(), nil)
	require.NoError(t, err)

	_, err = warmer.Run(context.Background())
	require.NoError(t, err)

	embedder := provider.(*mock.MockProvider).GetMockEmbedder()
	calls := embedder.CallCount()
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, engine.CacheStats().Size)

	// A second run is served from the cache.
	_, err = warmer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calls, embedder.CallCount())
}

func TestWarmer_WhitespaceDescriptionsAreWarmed(t *testing.T) {
	repo := setupTransactions(t, 0)
	require.NoError(t, repo.AddTransactions(context.Background(),
		&core.Transaction{ID: "tx1", Description: "   "},
		&core.Transaction{ID: "tx2"},
	))

	source := newFakeSource()
	warmer, err := NewWarmer(repo, source, fastConfig(), nil)
	require.NoError(t, err)

	result, err := warmer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Embedded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, source.calls["   "])
}

func TestWarmer_SendsOneRequestPerPage(t *testing.T) {
	repo := setupTransactions(t, 4)
	provider := mock.NewMockProvider()
	embedder := provider.(*mock.MockProvider).GetMockEmbedder()
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("single embeds are not expected")
	}
	engine, err := search.NewEngine(provider, search.WithPoolSize(2))
	require.NoError(t, err)
	defer engine.Close()

	cfg := fastConfig()
	cfg.Concurrency = 1
	warmer, err := NewWarmer(repo, engine, cfg, nil)
	require.NoError(t, err)

	result, err := warmer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Embedded)
	assert.Positive(t, result.Tokens)
	assert.Equal(t, 2, embedder.CallCount())
	assert.Equal(t, 4, engine.CacheStats().Size)

	embedder.EmbedTextFunc = nil
	_, tokens, err := engine.GetEmbedding(context.Background(), "Payment from User 2 for Deel", true)
	require.NoError(t, err)
	assert.Positive(t, tokens)
	assert.Equal(t, 2, embedder.CallCount(), "warmed description should be served from cache")
}

func TestChunkSize(t *testing.T) {
	assert.Equal(t, 1, chunkSize(2, 4))
	assert.Equal(t, 3, chunkSize(10, 4))
	assert.Equal(t, 5, chunkSize(5, 0))
	assert.Equal(t, 1, chunkSize(0, 4))
}
