package principals

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-service/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo, used by tests and the
// "memory" storage backend.
type InMemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*Principal
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		nextID: 1,
		byID:   make(map[int64]*Principal),
	}
}

func (r *InMemoryRepo) Create(_ context.Context, principal *Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.byID {
		if strings.EqualFold(p.Username, principal.Username) || strings.EqualFold(p.Email, principal.Email) {
			return errors.ErrConflict
		}
	}

	principal.ID = r.nextID
	r.nextID++
	if principal.DateJoined.IsZero() {
		principal.DateJoined = time.Now().UTC()
	}

	copied := *principal
	r.byID[principal.ID] = &copied
	return nil
}

func (r *InMemoryRepo) GetByID(_ context.Context, id int64) (*Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *InMemoryRepo) GetByUsernameOrEmail(_ context.Context, candidate string) (*Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var byUsername, byEmail *Principal
	for _, p := range r.byID {
		if strings.EqualFold(p.Username, candidate) {
			byUsername = p
		}
		if strings.EqualFold(p.Email, candidate) {
			byEmail = p
		}
	}

	if byUsername != nil && byEmail != nil && byUsername.ID != byEmail.ID {
		return nil, AmbiguousMatchErr
	}

	match := byUsername
	if match == nil {
		match = byEmail
	}
	if match == nil {
		return nil, errors.ErrNotFound
	}

	copied := *match
	return &copied, nil
}

func (r *InMemoryRepo) SetLastLogin(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.LastLogin = time.Now().UTC()
	return nil
}
