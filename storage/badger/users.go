package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/storage"
)

// UserRepository implements storage.UserRepository for BadgerDB.
type UserRepository struct {
	backend *Backend
}

var _ storage.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(backend *Backend) *UserRepository {
	return &UserRepository{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (r *UserRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *UserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddUsers stores users, replacing existing users with the same ID.
func (r *UserRepository) AddUsers(ctx context.Context, users ...*core.User) error {
	for _, u := range users {
		if err := core.ValidateUser(u); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
		}
	}

	wb, err := r.backend.writeBatch()
	if err != nil {
		return err
	}
	defer wb.Cancel()
	for _, u := range users {
		if err := wb.Set(makeUserKey(u.ID), storage.MarshalUser(u)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// GetUser retrieves a single user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*core.User, error) {
	var result *core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		user, found, err := getValue(tx, makeUserKey(id), storage.UnmarshalUser)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: user %s", storage.ErrNotFound, id)
		}
		result = user
		return nil
	}, false)
	return result, err
}

// GetUsers retrieves the users among ids that exist.
func (r *UserRepository) GetUsers(ctx context.Context, ids ...string) ([]*core.User, error) {
	result := make([]*core.User, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			user, found, err := getValue(tx, makeUserKey(id), storage.UnmarshalUser)
			if err != nil {
				return err
			}
			if found {
				result = append(result, user)
			}
		}
		return nil
	}, false)
	return result, err
}

// AllUsers returns every user ordered by ID.
func (r *UserRepository) AllUsers(ctx context.Context) ([]*core.User, error) {
	var result []*core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.backend.scan(ctx, tx, []byte(userRecordPrefix), nil, func(val []byte) (bool, error) {
			user, err := storage.UnmarshalUser(val)
			if err != nil {
				return false, err
			}
			result = append(result, user)
			return true, nil
		})
	}, false)
	return result, err
}

// CountUsers returns the number of stored users.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	return r.backend.count([]byte(userRecordPrefix))
}
