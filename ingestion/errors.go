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


package ingestion

import "errors"

var (
	// ErrUserRepositoryRequired is returned when a user repository is not provided.
	ErrUserRepositoryRequired = errors.New("user repository required")

	// ErrTransactionRepositoryRequired is returned when a transaction repository is not provided.
	ErrTransactionRepositoryRequired = errors.New("transaction repository required")

	// ErrMissingColumn is returned when a CSV file lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrEmptyFile is returned when a CSV file has no header row.
	ErrEmptyFile = errors.New("empty CSV file")
)
