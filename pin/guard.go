package pin

import (
	"context"

	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/internal/keylock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Guard verifies PINs and enforces the failed-attempt lockout. The
// read-increment-write on a record runs under a per-principal lock so a
// burst of concurrent wrong submissions cannot lose the lockout transition.
type Guard struct {
	repo      Repo
	locks     *keylock.KeyLock
	logger    zerolog.Logger
	onLockout func(principalID int64)
}

type GuardOption func(*Guard)

func WithLogger(logger zerolog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithLockoutHook registers a callback invoked when a record transitions to
// LOCKED, after the transition is persisted.
func WithLockoutHook(hook func(principalID int64)) GuardOption {
	return func(g *Guard) {
		g.onLockout = hook
	}
}

func NewGuard(repo Repo, options ...GuardOption) (*Guard, error) {
	if repo == nil {
		return nil, errors.New("[NewGuard] repo is required")
	}

	g := &Guard{
		repo:  repo,
		locks: keylock.New(),
	}

	for _, opt := range options {
		opt(g)
	}

	return g, nil
}

// Setup creates the principal's PIN record. One-time: a second setup fails
// with ErrConflict. Zero length/maxAttempts select the defaults.
func (g *Guard) Setup(ctx context.Context, principalID int64, newPIN string, pinLength, maxAttempts int) error {
	if pinLength == 0 {
		pinLength = DefaultPINLength
	}
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	if err := ValidatePIN(newPIN, pinLength); err != nil {
		return errors.Wrap(err, "[Guard.Setup] invalid pin")
	}

	hashed, err := HashPIN(newPIN)
	if err != nil {
		return errors.Wrap(err, "[Guard.Setup] HashPIN")
	}

	g.locks.Lock(principalID)
	defer g.locks.Unlock(principalID)

	err = g.repo.Create(ctx, &Record{
		PrincipalID: principalID,
		HashedPIN:   hashed,
		MaxAttempts: maxAttempts,
		PINLength:   pinLength,
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return apperrors.ErrConflict
		}
		return errors.Wrap(err, "[Guard.Setup] repo.Create")
	}
	return nil
}

// Verify checks candidatePIN against the principal's record.
//
// LOCKED records fail ErrForbidden without consuming an attempt; there is no
// automatic unlock. A mismatch increments the counter, locking atomically
// when the threshold is reached, and fails ErrUnauthorized. A match resets
// the counter to zero and succeeds.
func (g *Guard) Verify(ctx context.Context, principalID int64, candidatePIN string) error {
	g.locks.Lock(principalID)
	defer g.locks.Unlock(principalID)

	record, err := g.repo.Get(ctx, principalID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrUnauthorized
		}
		return errors.Wrap(err, "[Guard.Verify] repo.Get")
	}

	if record.IsLocked {
		return apperrors.ErrForbidden
	}

	if !CheckPINHash(candidatePIN, record.HashedPIN) {
		failedAttempts := record.FailedAttempts + 1
		locked := failedAttempts >= record.MaxAttempts
		if err := g.repo.UpdateAttempts(ctx, principalID, failedAttempts, locked); err != nil {
			return errors.Wrap(err, "[Guard.Verify] repo.UpdateAttempts")
		}
		if locked {
			g.logger.Warn().Int64("principal_id", principalID).Msg("pin locked after repeated failures")
			if g.onLockout != nil {
				g.onLockout(principalID)
			}
		}
		return apperrors.ErrUnauthorized
	}

	// Correct PIN restores the full attempt budget.
	if record.FailedAttempts != 0 {
		if err := g.repo.UpdateAttempts(ctx, principalID, 0, false); err != nil {
			return errors.Wrap(err, "[Guard.Verify] reset attempts")
		}
	}
	return nil
}
