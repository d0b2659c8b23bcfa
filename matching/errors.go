package matching

import "errors"

var (
	// ErrInvalidWeights is returned when scoring weights are out of range.
	ErrInvalidWeights = errors.New("invalid scoring weights")

	// ErrExtractorRequired is returned when a nil extractor is supplied.
	ErrExtractorRequired = errors.New("extractor required")
)
