package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/payermatch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer answers /v1/embeddings with one vector per input, each
// of length dims.
func embeddingServer(t *testing.T, dims int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		requests.Add(1)

		var body struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(body.Input))
		for i := range body.Input {
			vec := make([]float32, dims)
			vec[i%dims] = 1
			data[i] = item{Object: "embedding", Embedding: vec, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "test-embed",
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func testConfig(host string, dims int) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(host),
		ai.WithEmbeddingModel("test-embed"),
		ai.WithDimensions(dims),
	)
}

func TestEmbedder_EmbedText(t *testing.T) {
	srv, requests := embeddingServer(t, 4)
	embedder, err := NewEmbedder(testConfig(srv.URL, 4))
	require.NoError(t, err)

	vec, err := embedder.EmbedText(context.Background(), "Payment from John Smith\nfor Deel")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, int32(1), requests.Load())
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	srv, _ := embeddingServer(t, 3)
	embedder, err := NewEmbedder(testConfig(srv.URL, 3))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 0, 0}, vectors[0])
	assert.Equal(t, []float32{0, 0, 1}, vectors[2])

	empty, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEmbedder_DimensionMismatch(t *testing.T) {
	srv, _ := embeddingServer(t, 2)
	embedder, err := NewEmbedder(testConfig(srv.URL, 384))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "Transfer to Jane Doe")
	assert.ErrorIs(t, err, ai.ErrUnexpectedDimensions)
}

func TestEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	embedder, err := NewEmbedder(testConfig(srv.URL, 4))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "refund")
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(testConfig("http://localhost:11434", 384))
	require.NoError(t, err)

	assert.NotNil(t, provider.Embedder())
	assert.Equal(t, 384, provider.Dimensions())
	assert.Positive(t, provider.Tokenizer().CountTokens("payment received"))
	assert.NoError(t, provider.Close())
	assert.NoError(t, provider.Close())

	_, err = NewProvider(ai.NewConfig(ai.WithEmbeddingModel("")))
	assert.Error(t, err)
}
