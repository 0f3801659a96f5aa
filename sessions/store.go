package sessions

import (
	"context"
	"crypto/subtle"
	"time"

	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Store enforces the single-active-session rule over a Repo. Presenting any
// refresh token other than the most recently stored one for a principal
// fails validation; that is the replay-prevention contract.
//
// Store does not serialise concurrent writers itself; callers that need the
// validate/invalidate/put window to be atomic per principal hold the
// per-principal lock around it.
type Store struct {
	repo Repo
}

func NewStore(repo Repo) *Store {
	return &Store{repo: repo}
}

// Put stores rawToken's hash as the principal's one live session,
// unconditionally superseding any prior session.
func (s *Store) Put(ctx context.Context, principalID int64, rawToken string) error {
	err := s.repo.Upsert(ctx, &RefreshSession{
		PrincipalID: principalID,
		TokenHash:   HashToken(rawToken),
		IssuedAt:    NowTimeFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "Store.Put Upsert")
	}
	return nil
}

// Validate checks that rawToken is the principal's current session token.
// A missing record and a hash mismatch are indistinguishable to the caller.
func (s *Store) Validate(ctx context.Context, principalID int64, rawToken string) error {
	session, err := s.repo.Get(ctx, principalID)
	if err != nil {
		return apperrors.ErrUnauthorized
	}

	presented := HashToken(rawToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(session.TokenHash)) != 1 {
		return apperrors.ErrUnauthorized
	}
	return nil
}

// Invalidate deletes the principal's session. Idempotent.
func (s *Store) Invalidate(ctx context.Context, principalID int64) error {
	if err := s.repo.Delete(ctx, principalID); err != nil {
		return errors.Wrap(err, "Store.Invalidate Delete")
	}
	return nil
}
