package pin

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-service/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo, used by tests and the
// "memory" storage backend.
type InMemoryRepo struct {
	mu      sync.RWMutex
	records map[int64]Record
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		records: make(map[int64]Record),
	}
}

func (r *InMemoryRepo) Create(_ context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.PrincipalID]; ok {
		return errors.ErrConflict
	}
	r.records[record.PrincipalID] = *record
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, principalID int64) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[principalID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &record, nil
}

func (r *InMemoryRepo) UpdateAttempts(_ context.Context, principalID int64, failedAttempts int, isLocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[principalID]
	if !ok {
		return errors.ErrNotFound
	}
	record.FailedAttempts = failedAttempts
	record.IsLocked = isLocked
	r.records[principalID] = record
	return nil
}

func (r *InMemoryRepo) Reset(_ context.Context, principalID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[principalID]
	if !ok {
		return errors.ErrNotFound
	}
	record.FailedAttempts = 0
	record.IsLocked = false
	r.records[principalID] = record
	return nil
}
