package ai

import "errors"

var (
	// ErrEmptyEmbedding is returned when the embedding service answers without a vector.
	ErrEmptyEmbedding = errors.New("embedding service returned no vector")

	// ErrUnexpectedDimensions is returned when a vector's length differs from the configured dimensions.
	ErrUnexpectedDimensions = errors.New("embedding has unexpected dimensions")
)
