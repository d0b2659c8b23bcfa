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


package core

import (
	"fmt"
	"strings"
)

const (
	// MaxMatchThreshold is the upper bound for name match thresholds.
	MaxMatchThreshold = 100

	// MaxSimilarityThreshold is the upper bound for semantic similarity thresholds.
	MaxSimilarityThreshold = 1.0
)

// ValidateUser validates a User according to domain rules.
//
// Validation rules:
//   - ID must not be blank
//
// NOT validated:
//   - Name (an empty name is kept and simply never matches)
func ValidateUser(user *User) error {
	if user == nil {
		return fmt.Errorf("%w: user is nil", ErrInvalidUser)
	}

	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrEmptyID)
	}

	return nil
}

// ValidateTransaction validates a Transaction according to domain rules.
//
// Validation rules:
//   - ID must not be blank
//
// NOT validated:
//   - Description (empty descriptions are skipped by matching and search)
//   - Amount (missing amounts are represented as invalid NullDecimals)
func ValidateTransaction(txn *Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction is nil", ErrInvalidTransaction)
	}

	if strings.TrimSpace(txn.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, ErrEmptyID)
	}

	return nil
}

// ValidateMatchThreshold checks a name match threshold is within [0, 100].
func ValidateMatchThreshold(threshold float64) error {
	if threshold < 0 || threshold > MaxMatchThreshold {
		return fmt.Errorf("%w: match threshold %v not in [0, %d]", ErrInvalidThreshold, threshold, MaxMatchThreshold)
	}
	return nil
}

// ValidateSimilarityThreshold checks a similarity threshold is within [0, 1].
func ValidateSimilarityThreshold(threshold float64) error {
	if threshold < 0 || threshold > MaxSimilarityThreshold {
		return fmt.Errorf("%w: similarity threshold %v not in [0, 1]", ErrInvalidThreshold, threshold)
	}
	return nil
}
