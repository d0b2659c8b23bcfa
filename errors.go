package payermatch

import "errors"

var (
	// ErrEmptyQuery is returned when a semantic search query is blank
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidLimit is returned when a search limit is outside 1..100
	ErrInvalidLimit = errors.New("limit must be between 1 and 100")

	// ErrProviderRequired is returned when WithProvider is given nil
	ErrProviderRequired = errors.New("AI provider is required")
)
