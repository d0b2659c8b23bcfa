package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/storage"
)

const defaultBatchSize = 500

// Stats summarizes an import.
type Stats struct {
	Users        int
	Transactions int
}

// Importer loads CSV files into the user and transaction repositories.
type Importer struct {
	users        storage.UserRepository
	transactions storage.TransactionRepository
	batchSize    int
	logger       *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// WithBatchSize sets how many records are written per storage call.
// Default is 500.
func WithBatchSize(size int) Option {
	return func(i *Importer) error {
		if size < 1 {
			size = 1
		}
		i.batchSize = size
		return nil
	}
}

// NewImporter creates a new importer.
func NewImporter(users storage.UserRepository, transactions storage.TransactionRepository, opts ...Option) (*Importer, error) {
	if users == nil {
		return nil, ErrUserRepositoryRequired
	}
	if transactions == nil {
		return nil, ErrTransactionRepositoryRequired
	}

	i := &Importer{
		users:        users,
		transactions: transactions,
		batchSize:    defaultBatchSize,
		logger:       slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	i.logger = i.logger.With("component", "importer")

	return i, nil
}

// Import loads the users and transactions CSV files. Either path may be
// empty to skip that file.
func (i *Importer) Import(ctx context.Context, usersPath, transactionsPath string) (Stats, error) {
	var (
		users []core.User
		txns  []core.Transaction
	)

	if usersPath != "" {
		loaded, err := loadFile(usersPath, LoadUsers)
		if err != nil {
			return Stats{}, err
		}
		users = loaded
	}
	if transactionsPath != "" {
		loaded, err := loadFile(transactionsPath, LoadTransactions)
		if err != nil {
			return Stats{}, err
		}
		txns = loaded
	}

	return i.ImportRecords(ctx, users, txns)
}

// ImportRecords stores already loaded users and transactions.
func (i *Importer) ImportRecords(ctx context.Context, users []core.User, txns []core.Transaction) (Stats, error) {
	var stats Stats

	for start := 0; start < len(users); start += i.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := min(start+i.batchSize, len(users))
		batch := make([]*core.User, 0, end-start)
		for j := start; j < end; j++ {
			batch = append(batch, &users[j])
		}
		if err := i.users.AddUsers(ctx, batch...); err != nil {
			i.logger.Error("error storing users", "offset", start, "err", err)
			return stats, err
		}
		stats.Users += len(batch)
	}

	for start := 0; start < len(txns); start += i.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := min(start+i.batchSize, len(txns))
		batch := make([]*core.Transaction, 0, end-start)
		for j := start; j < end; j++ {
			batch = append(batch, &txns[j])
		}
		if err := i.transactions.AddTransactions(ctx, batch...); err != nil {
			i.logger.Error("error storing transactions", "offset", start, "err", err)
			return stats, err
		}
		stats.Transactions += len(batch)
	}

	i.logger.Info("import complete", "users", stats.Users, "transactions", stats.Transactions)
	return stats, nil
}

func loadFile[T any](path string, load func(r io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	records, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
