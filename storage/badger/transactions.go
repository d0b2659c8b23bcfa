package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/storage"
)

// TransactionRepository implements storage.TransactionRepository for BadgerDB.
type TransactionRepository struct {
	backend *Backend
}

var _ storage.TransactionRepository = (*TransactionRepository)(nil)

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(backend *Backend) *TransactionRepository {
	return &TransactionRepository{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (r *TransactionRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *TransactionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddTransactions stores transactions, replacing existing ones with the same ID.
func (r *TransactionRepository) AddTransactions(ctx context.Context, txns ...*core.Transaction) error {
	for _, txn := range txns {
		if err := core.ValidateTransaction(txn); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
		}
	}

	wb, err := r.backend.writeBatch()
	if err != nil {
		return err
	}
	defer wb.Cancel()
	for _, txn := range txns {
		if err := wb.Set(makeTransactionKey(txn.ID), storage.MarshalTransaction(txn)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// GetTransaction retrieves a single transaction by ID.
func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	var result *core.Transaction
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		txn, found, err := getValue(tx, makeTransactionKey(id), storage.UnmarshalTransaction)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: transaction %s", storage.ErrNotFound, id)
		}
		result = txn
		return nil
	}, false)
	return result, err
}

// GetTransactions retrieves the transactions among ids that exist.
func (r *TransactionRepository) GetTransactions(ctx context.Context, ids ...string) ([]*core.Transaction, error) {
	result := make([]*core.Transaction, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			txn, found, err := getValue(tx, makeTransactionKey(id), storage.UnmarshalTransaction)
			if err != nil {
				return err
			}
			if found {
				result = append(result, txn)
			}
		}
		return nil
	}, false)
	return result, err
}

// AllTransactions returns every transaction ordered by ID.
func (r *TransactionRepository) AllTransactions(ctx context.Context) ([]*core.Transaction, error) {
	return r.GetTransactionsAfter(ctx, "", 0)
}

// GetTransactionsAfter returns up to limit transactions with IDs after
// afterID. A limit of zero or less returns all of them.
func (r *TransactionRepository) GetTransactionsAfter(ctx context.Context, afterID string, limit int) ([]*core.Transaction, error) {
	var after []byte
	if afterID != "" {
		after = makeTransactionKey(afterID)
	}

	var result []*core.Transaction
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.backend.scan(ctx, tx, []byte(transactionRecordPrefix), after, func(val []byte) (bool, error) {
			txn, err := storage.UnmarshalTransaction(val)
			if err != nil {
				return false, err
			}
			result = append(result, txn)
			return limit <= 0 || len(result) < limit, nil
		})
	}, false)
	return result, err
}

// CountTransactions returns the number of stored transactions.
func (r *TransactionRepository) CountTransactions(ctx context.Context) (int, error) {
	return r.backend.count([]byte(transactionRecordPrefix))
}
