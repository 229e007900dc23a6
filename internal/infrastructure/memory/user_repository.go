package memory

import (
	"context"
	"sort"
	"sync"

	"fintrack/internal/domain/user"
)

// UserRepository keeps encoded user records in process memory. Records are
// copied on the way in and out, so callers never share state.
type UserRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewUserRepository() *UserRepository {
	return &UserRepository{records: make(map[string][]byte)}
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*user.Record, error) {
	r.mu.RLock()
	data, ok := r.records[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, user.ErrNotFound
	}

	rec, err := user.Decode(data)
	if err != nil {
		return nil, &user.StoreError{Op: "get", UserID: userID, Err: err}
	}
	rec.ID = userID
	return rec, nil
}

func (r *UserRepository) Put(ctx context.Context, rec *user.Record) error {
	data, err := user.Encode(rec)
	if err != nil {
		return &user.StoreError{Op: "put", UserID: rec.ID, Err: err}
	}

	r.mu.Lock()
	r.records[rec.ID] = data
	r.mu.Unlock()
	return nil
}

// Len returns the number of stored records.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// ListIDs returns the stored user IDs in sorted order.
func (r *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}
