// Package remote holds the per-identity goal stores used when a user is
// signed in.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

var ErrInvalidIdentity = errors.New("invalid identity")

// Store is a per-identity goal collection.
//
// Subscribe delivers the full current list on every change until ctx is
// cancelled, then closes the channel. Deliveries may be stale relative to
// writes made by the same client.
type Store interface {
	Save(ctx context.Context, userID string, goal *model.Goal) error
	LoadAll(ctx context.Context, userID string) ([]*model.Goal, error)
	Delete(ctx context.Context, userID, goalID string) error
	Subscribe(ctx context.Context, userID string) (<-chan []*model.Goal, error)
}

// StorageError reports a failed remote operation.
type StorageError struct {
	Op     string
	UserID string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("remote %s for %q: %v", e.Op, e.UserID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op, userID string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, UserID: userID, Err: err}
}

func checkIdentity(op, userID string) error {
	if userID == "" {
		return storageError(op, userID, ErrInvalidIdentity)
	}
	return nil
}
