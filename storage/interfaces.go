package storage

import (
	"context"

	"github.com/poiesic/payermatch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// UserRepository provides operations for managing users.
type UserRepository interface {
	Repository

	// AddUsers stores users, replacing any existing user with the same ID.
	// Returns ErrInvalidRecord for a user without an ID.
	AddUsers(ctx context.Context, users ...*core.User) error

	// GetUser retrieves a single user by ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id string) (*core.User, error)

	// GetUsers retrieves multiple users by their IDs.
	// Returns only the users that exist (no error for missing users).
	GetUsers(ctx context.Context, ids ...string) ([]*core.User, error)

	// AllUsers returns every user ordered by ID.
	AllUsers(ctx context.Context) ([]*core.User, error)

	// CountUsers returns the number of stored users.
	CountUsers(ctx context.Context) (int, error)
}

// TransactionRepository provides operations for managing transactions.
type TransactionRepository interface {
	Repository

	// AddTransactions stores transactions, replacing any existing
	// transaction with the same ID.
	// Returns ErrInvalidRecord for a transaction without an ID.
	AddTransactions(ctx context.Context, txns ...*core.Transaction) error

	// GetTransaction retrieves a single transaction by ID.
	// Returns ErrNotFound if the transaction doesn't exist.
	GetTransaction(ctx context.Context, id string) (*core.Transaction, error)

	// GetTransactions retrieves multiple transactions by their IDs.
	// Returns only the transactions that exist (no error for missing ones).
	GetTransactions(ctx context.Context, ids ...string) ([]*core.Transaction, error)

	// AllTransactions returns every transaction ordered by ID.
	AllTransactions(ctx context.Context) ([]*core.Transaction, error)

	// GetTransactionsAfter returns up to limit transactions whose IDs sort
	// after afterID, ordered by ID. An empty afterID starts at the beginning.
	GetTransactionsAfter(ctx context.Context, afterID string, limit int) ([]*core.Transaction, error)

	// CountTransactions returns the number of stored transactions.
	CountTransactions(ctx context.Context) (int, error)
}
