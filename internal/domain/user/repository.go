package user

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("user record not found")
	ErrStore    = errors.New("user store failure")
)

// Repository defines the interface for user record persistence. Put replaces
// the whole document; the last writer wins.
type Repository interface {
	Get(ctx context.Context, userID string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
}

// Lister is implemented by stores that can enumerate their records.
type Lister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// StoreError wraps a backend failure.
type StoreError struct {
	Op     string
	UserID string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("user store %s %s: %v", e.Op, e.UserID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
