package auth

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/internal/keylock"
	"github.com/jrsteele09/go-session-service/principals"
	"github.com/jrsteele09/go-session-service/sessions"
	"github.com/jrsteele09/go-session-service/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Repos holds all repository dependencies for the SessionManager
type Repos struct {
	Principals principals.Repo // Repository for principal data
}

// SignInResult carries the minted pair plus the denormalized profile fields
// clients render without a follow-up request.
type SignInResult struct {
	Pair      *token.Pair           `json:"tokens"`
	Principal *principals.Principal `json:"principal"`
}

// SessionManager orchestrates sign-in, refresh and invalidation over the
// credential verifier, the token issuer and the refresh session store.
//
// All writes to a principal's session slot happen under that principal's
// lock: a refresh validates, invalidates and stores as one unit relative to
// any other sign-in or refresh for the same principal. Without that, two
// near-simultaneous refreshes could both validate against the same stored
// token and one caller would walk away with a silently dead pair.
type SessionManager struct {
	repos      Repos
	store      *sessions.Store
	issuer     *token.Issuer
	locks      *keylock.KeyLock
	bcryptCost int
	logger     zerolog.Logger
	nowTime    func() time.Time
}

// SessionManagerOption defines a function type to modify the SessionManager instance.
type SessionManagerOption func(*SessionManager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.nowTime = nowFunc
	}
}

// WithBcryptCost sets the cost factor used when hashing new passwords.
func WithBcryptCost(cost int) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.bcryptCost = cost
	}
}

// WithLogger sets the component logger.
func WithLogger(logger zerolog.Logger) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.logger = logger
	}
}

// NewSessionManager initializes a SessionManager with required dependencies.
func NewSessionManager(
	repos Repos,
	store *sessions.Store,
	issuer *token.Issuer,
	options ...SessionManagerOption,
) (*SessionManager, error) {
	if repos.Principals == nil {
		return nil, errors.New("[NewSessionManager] Principals repo is required")
	}
	if store == nil {
		return nil, errors.New("[NewSessionManager] session store is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewSessionManager] token issuer is required")
	}

	sm := &SessionManager{
		repos:   repos,
		store:   store,
		issuer:  issuer,
		locks:   keylock.New(),
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(sm)
	}

	return sm, nil
}

// Register creates a new principal with a hashed password. Supplies the
// identities SignIn resolves; uniqueness conflicts surface as ErrConflict.
func (sm *SessionManager) Register(ctx context.Context, principal *principals.Principal, password string) error {
	if err := principals.ValidatePasswordStrength(password); err != nil {
		return errors.Wrap(err, "[SessionManager.Register] weak password")
	}

	hash, err := principals.HashPasswordWithCost(password, sm.bcryptCost)
	if err != nil {
		return errors.Wrap(err, "[SessionManager.Register] HashPassword")
	}
	principal.PasswordHash = hash
	principal.DateJoined = sm.nowTime().UTC()

	if err := sm.repos.Principals.Create(ctx, principal); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return apperrors.ErrConflict
		}
		return errors.Wrap(err, "[SessionManager.Register] repo.Create")
	}
	return nil
}

// SignIn resolves a principal by username or email and checks the password.
// Unknown principals, ambiguous lookups and wrong passwords all fail with
// the same ErrUnauthorized so callers cannot enumerate usernames. A success
// unconditionally supersedes any session the principal already held.
func (sm *SessionManager) SignIn(ctx context.Context, usernameOrEmail, password string) (*SignInResult, error) {
	principal, err := sm.repos.Principals.GetByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		if apperrors.Is(err, principals.AmbiguousMatchErr) {
			sm.logger.Warn().Str("candidate", usernameOrEmail).Msg("ambiguous sign-in lookup rejected")
		}
		return nil, apperrors.ErrUnauthorized
	}

	if !principals.CheckPasswordHash(password, principal.PasswordHash) {
		return nil, apperrors.ErrUnauthorized
	}

	pair, err := sm.issuer.IssuePair(principal.ID, principal.Username)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionManager.SignIn] IssuePair")
	}

	sm.locks.Lock(principal.ID)
	defer sm.locks.Unlock(principal.ID)

	if err := sm.store.Put(ctx, principal.ID, pair.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "[SessionManager.SignIn] store.Put")
	}

	if err := sm.repos.Principals.SetLastLogin(ctx, principal.ID); err != nil {
		sm.logger.Warn().Err(err).Int64("principal_id", principal.ID).Msg("failed to record last login")
	}

	return &SignInResult{Pair: pair, Principal: principal}, nil
}

// Refresh exchanges a live refresh token for a new pair, rotating the
// session. The presented token must be the principal's single stored one;
// stale or already-rotated tokens fail ErrUnauthorized. The old session is
// invalidated before the new one is stored.
func (sm *SessionManager) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	claims, err := sm.issuer.Verify(refreshToken, token.UseRefresh)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	sm.locks.Lock(claims.Subject)
	defer sm.locks.Unlock(claims.Subject)

	if err := sm.store.Validate(ctx, claims.Subject, refreshToken); err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	pair, err := sm.issuer.IssuePair(claims.Subject, claims.Username)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionManager.Refresh] IssuePair")
	}

	if err := sm.store.Invalidate(ctx, claims.Subject); err != nil {
		return nil, errors.Wrap(err, "[SessionManager.Refresh] store.Invalidate")
	}
	if err := sm.store.Put(ctx, claims.Subject, pair.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "[SessionManager.Refresh] store.Put")
	}

	return pair, nil
}

// Invalidate deletes the subject's refresh session. The presented token may
// be either kind as long as its signature verifies. Idempotent: invalidating
// an already-invalidated session is a no-op success.
func (sm *SessionManager) Invalidate(ctx context.Context, rawToken string) error {
	claims, err := sm.issuer.Verify(rawToken, token.UseAccess)
	if err != nil {
		claims, err = sm.issuer.Verify(rawToken, token.UseRefresh)
	}
	if err != nil {
		return apperrors.ErrUnauthorized
	}

	sm.locks.Lock(claims.Subject)
	defer sm.locks.Unlock(claims.Subject)

	if err := sm.store.Invalidate(ctx, claims.Subject); err != nil {
		return errors.Wrap(err, "[SessionManager.Invalidate] store.Invalidate")
	}
	return nil
}

// AuthorizeAccess verifies a bearer access token. Stateless; superseding a
// session never revokes access tokens already in flight.
func (sm *SessionManager) AuthorizeAccess(rawToken string) (*token.Claims, error) {
	claims, err := sm.issuer.Verify(rawToken, token.UseAccess)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

// AuthorizeRefresh verifies a refresh token and checks it is the subject's
// live session token. Read-only; rotation happens in Refresh.
func (sm *SessionManager) AuthorizeRefresh(ctx context.Context, rawToken string) (*token.Claims, error) {
	claims, err := sm.issuer.Verify(rawToken, token.UseRefresh)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if err := sm.store.Validate(ctx, claims.Subject, rawToken); err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}
