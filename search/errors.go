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


package search

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrDimensionMismatch is returned when two vectors of different length are compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidDimensions is returned when the embedding length is not positive.
	ErrInvalidDimensions = errors.New("embedding dimensions must be positive")

	// ErrEmbeddingCount is returned when a batch request yields a different
	// number of vectors than texts sent.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
