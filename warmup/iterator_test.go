package warmup

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTransactions(t *testing.T, n int) *badger.TransactionRepository {
	t.Helper()
	_, txns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	records := make([]*core.Transaction, n)
	for i := range records {
		records[i] = &core.Transaction{
			ID:          fmt.Sprintf("tx%03d", i),
			Description: fmt.Sprintf("Payment from User %d for Deel", i),
		}
	}
	if n > 0 {
		require.NoError(t, txns.AddTransactions(context.Background(), records...))
	}
	return txns
}

func TestTransactionIterator_VisitsAllInOrder(t *testing.T) {
	repo := setupTransactions(t, 7)

	var sizes []int
	var ids []string
	err := NewTransactionIterator(repo, 3).ForEach(context.Background(), func(batch []*core.Transaction) error {
		sizes = append(sizes, len(batch))
		for _, txn := range batch {
			ids = append(ids, txn.ID)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
	require.Len(t, ids, 7)
	assert.Equal(t, "tx000", ids[0])
	assert.Equal(t, "tx006", ids[6])
}

func TestTransactionIterator_ExactMultipleOfBatch(t *testing.T) {
	repo := setupTransactions(t, 4)

	batches := 0
	count := 0
	err := NewTransactionIterator(repo, 2).ForEach(context.Background(), func(batch []*core.Transaction) error {
		batches++
		count += len(batch)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	assert.Equal(t, 4, count)
}

func TestTransactionIterator_Empty(t *testing.T) {
	repo := setupTransactions(t, 0)

	called := false
	err := NewTransactionIterator(repo, 0).ForEach(context.Background(), func([]*core.Transaction) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called)
}

func TestTransactionIterator_StopsOnError(t *testing.T) {
	repo := setupTransactions(t, 5)
	boom := fmt.Errorf("boom")

	batches := 0
	err := NewTransactionIterator(repo, 2).ForEach(context.Background(), func([]*core.Transaction) error {
		batches++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, batches)
}

func TestTransactionIterator_ContextCancelled(t *testing.T) {
	repo := setupTransactions(t, 5)
	ctx, cancel := context.WithCancel(context.Background())

	batches := 0
	err := NewTransactionIterator(repo, 2).ForEach(ctx, func([]*core.Transaction) error {
		batches++
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, batches)
}
