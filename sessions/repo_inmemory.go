package sessions

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-service/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo, used by tests and the
// "memory" storage backend.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[int64]RefreshSession
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[int64]RefreshSession),
	}
}

func (r *InMemoryRepo) Upsert(_ context.Context, session *RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.PrincipalID] = *session
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, principalID int64) (*RefreshSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[principalID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &session, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, principalID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, principalID)
	return nil
}
