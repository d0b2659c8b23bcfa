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


package warmup

import (
	"context"

	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/storage"
)

// DefaultBatchSize is the number of transactions fetched per page.
const DefaultBatchSize = 100

// TransactionIterator pages through every stored transaction in ID order.
type TransactionIterator struct {
	repo      storage.TransactionRepository
	batchSize int
}

// NewTransactionIterator creates an iterator. A batchSize <= 0 selects
// DefaultBatchSize.
func NewTransactionIterator(repo storage.TransactionRepository, batchSize int) *TransactionIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &TransactionIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive pages of transactions. Iteration stops at
// the first error from fn or the repository, or when ctx is cancelled.
func (it *TransactionIterator) ForEach(ctx context.Context, fn func([]*core.Transaction) error) error {
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := it.repo.GetTransactionsAfter(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		if err := fn(page); err != nil {
			return err
		}

		if len(page) < it.batchSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}
