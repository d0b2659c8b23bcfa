package warmup

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRepositoryRequired is returned when no transaction repository is supplied
	ErrRepositoryRequired = errors.New("transaction repository is required")

	// ErrEmbeddingSourceRequired is returned when no embedding source is supplied
	ErrEmbeddingSourceRequired = errors.New("embedding source is required")
)
