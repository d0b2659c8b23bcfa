package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/payermatch/storage"
)

// Backend owns the Badger database shared by the user and transaction
// repositories.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogAdapter routes Badger's printf-style log calls into slog.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = slogAdapter{}

func (a slogAdapter) log(level slog.Level, format string, args []any) {
	a.logger.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (a slogAdapter) Errorf(format string, args ...any)   { a.log(slog.LevelError, format, args) }
func (a slogAdapter) Warningf(format string, args ...any) { a.log(slog.LevelWarn, format, args) }
func (a slogAdapter) Infof(format string, args ...any)    { a.log(slog.LevelInfo, format, args) }
func (a slogAdapter) Debugf(format string, args ...any)   { a.log(slog.LevelDebug, format, args) }

// OpenBackend opens the store under dir, creating the directory when it is
// missing. With inMemory set dir is ignored and nothing touches disk.
func OpenBackend(dir string, inMemory bool) (*Backend, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	if !inMemory {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(dir)
	}

	logger := slog.Default().With("component", "badger")
	opts = opts.WithLogger(slogAdapter{logger: logger}).WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	logger.Debug("opened store", "dir", dir, "inMemory", inMemory)
	return &Backend{db: db, logger: logger}, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return err
	}
	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn inside a Badger transaction, read-write when isWrite is
// set. The transaction is always discarded afterwards, so fn must commit
// explicitly to persist writes.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// writeBatch starts a batched write for bulk loads.
func (b *Backend) writeBatch() (*badger.WriteBatch, error) {
	if b.db.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return b.db.NewWriteBatch(), nil
}

// WithTransaction runs fn and commits a write transaction when fn succeeds.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// scan visits the values stored under prefix in key order. When after is
// non-empty the scan starts at the first key sorting after it. The visit
// stops when fn returns false or the context is cancelled.
func (b *Backend) scan(ctx context.Context, tx *badger.Txn, prefix, after []byte, fn func(val []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	start := prefix
	if len(after) > 0 {
		start = after
	}

	for iter.Seek(start); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := iter.Item()
		if len(after) > 0 && string(item.Key()) == string(after) {
			continue
		}

		var more bool
		err := item.Value(func(val []byte) error {
			var err error
			more, err = fn(val)
			return err
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// count returns the number of keys under prefix without reading values.
func (b *Backend) count(prefix []byte) (int, error) {
	n := 0
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
		}
		return nil
	}, false)
	return n, err
}

// getValue reads the value under key, returning nil when the key is absent.
func getValue[T any](tx *badger.Txn, key []byte, decode func([]byte) (T, error)) (T, bool, error) {
	var zero T
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}

	var out T
	err = item.Value(func(val []byte) error {
		var decodeErr error
		out, decodeErr = decode(val)
		return decodeErr
	})
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}
