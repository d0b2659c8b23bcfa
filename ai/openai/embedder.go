package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/payermatch/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// embedBatchSize caps the texts sent in one embeddings request.
const embedBatchSize = 256

// Embedder implements ai.Embedder against an OpenAI-compatible /embeddings
// endpoint. Every returned vector has exactly the configured dimensions.
type Embedder struct {
	client     embeddings.Embedder
	dimensions int
	logger     *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIToken),
		openai.WithEmbeddingModel(config.EmbeddingModel),
		openai.WithEmbeddingDimensions(config.Dimensions),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embeddings client: %w", err)
	}

	client, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(embedBatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		client:     client,
		dimensions: config.Dimensions,
		logger: slog.Default().With(
			"component", "openai-embedder",
			"host", config.EmbeddingHost,
			"model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates an embedder from config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single description or query.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.client.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("embedding request failed", "chars", len(text), "err", err)
		return nil, err
	}
	if len(vector) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}
	if err := e.checkDimensions(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// EmbedTexts embeds texts in request batches, preserving order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("embedding batch", "count", len(texts))

	vectors, err := e.client.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("batch embedding request failed", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ai.ErrEmptyEmbedding, len(vectors), len(texts))
	}
	for _, v := range vectors {
		if err := e.checkDimensions(v); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

func (e *Embedder) checkDimensions(vector []float32) error {
	if len(vector) != e.dimensions {
		return fmt.Errorf("%w: got %d, want %d", ai.ErrUnexpectedDimensions, len(vector), e.dimensions)
	}
	return nil
}
