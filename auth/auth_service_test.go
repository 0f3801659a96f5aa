package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-service/auth"
	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/principals"
	"github.com/jrsteele09/go-session-service/sessions"
	"github.com/jrsteele09/go-session-service/token"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "alice"
	testEmail    = "alice@example.com"
	testPassword = "Secret1password"
)

// testFixture holds all test dependencies
type testFixture struct {
	principalRepo *principals.InMemoryRepo
	sessionRepo   *sessions.InMemoryRepo
	store         *sessions.Store
	issuer        *token.Issuer
	manager       *auth.SessionManager
}

func setupTestFixture(t *testing.T, options ...auth.SessionManagerOption) *testFixture {
	t.Helper()

	pr := principals.NewInMemoryRepo()
	sr := sessions.NewInMemoryRepo()
	store := sessions.NewStore(sr)
	issuer := token.New(
		token.NewHMACSigner("access-secret"),
		token.NewHMACSigner("refresh-secret"),
	)

	manager, err := auth.NewSessionManager(auth.Repos{Principals: pr}, store, issuer, options...)
	require.NoError(t, err)

	return &testFixture{
		principalRepo: pr,
		sessionRepo:   sr,
		store:         store,
		issuer:        issuer,
		manager:       manager,
	}
}

func (f *testFixture) createTestPrincipal(t *testing.T, username, email, password string) *principals.Principal {
	t.Helper()

	p := &principals.Principal{Username: username, Email: email}
	require.NoError(t, f.manager.Register(context.Background(), p, password))
	return p
}

func TestNewSessionManager_RequiresDependencies(t *testing.T) {
	store := sessions.NewStore(sessions.NewInMemoryRepo())
	issuer := token.New(token.NewHMACSigner("a"), token.NewHMACSigner("r"))

	_, err := auth.NewSessionManager(auth.Repos{}, store, issuer)
	require.Error(t, err)

	_, err = auth.NewSessionManager(auth.Repos{Principals: principals.NewInMemoryRepo()}, nil, issuer)
	require.Error(t, err)

	_, err = auth.NewSessionManager(auth.Repos{Principals: principals.NewInMemoryRepo()}, store, nil)
	require.Error(t, err)
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	f := setupTestFixture(t)
	p := &principals.Principal{Username: "bob", Email: "bob@example.com"}
	require.Error(t, f.manager.Register(context.Background(), p, "short"))
}

func TestRegister_DuplicateConflicts(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	p := &principals.Principal{Username: testUsername, Email: "other@example.com"}
	require.ErrorIs(t, f.manager.Register(context.Background(), p, testPassword), apperrors.ErrConflict)
}

func TestSignIn_Success(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	created := f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	result, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, result.Pair.AccessToken)
	require.NotEmpty(t, result.Pair.RefreshToken)
	require.Equal(t, testUsername, result.Principal.Username)
	require.Equal(t, testEmail, result.Principal.Email)

	// Exactly one session row exists and it hashes the returned token.
	session, err := f.sessionRepo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, sessions.HashToken(result.Pair.RefreshToken), session.TokenHash)
}

func TestSignIn_ByEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	_, err := f.manager.SignIn(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
}

func TestSignIn_DoesNotLeakPrincipalExistence(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)
	ctx := context.Background()

	_, unknownErr := f.manager.SignIn(ctx, "nobody", testPassword)
	_, wrongPwErr := f.manager.SignIn(ctx, testUsername, "WrongPassword1")

	// Unknown principal and wrong password are indistinguishable.
	require.ErrorIs(t, unknownErr, apperrors.ErrUnauthorized)
	require.ErrorIs(t, wrongPwErr, apperrors.ErrUnauthorized)
	require.Equal(t, unknownErr, wrongPwErr)
}

func TestSignIn_AmbiguousLookupRejected(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	// One principal's username equals another principal's email.
	f.createTestPrincipal(t, "carol@example.com", "carol@corp.example.com", testPassword)
	f.createTestPrincipal(t, "carol", "carol@example.com", testPassword)

	_, err := f.manager.SignIn(ctx, "carol@example.com", testPassword)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSignIn_SecondSignInSupersedesFirstSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	first, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)
	second, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	_, err = f.manager.Refresh(ctx, first.Pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.manager.Refresh(ctx, second.Pair.RefreshToken)
	require.NoError(t, err)
}

func TestSignIn_AccessTokenOutlivesSupersededSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	first, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)
	_, err = f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	// Access tokens are not checked against the store.
	_, err = f.manager.AuthorizeAccess(first.Pair.AccessToken)
	require.NoError(t, err)
}

func TestRefresh_RotatesExactlyOnce(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	result, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	rotated, err := f.manager.Refresh(ctx, result.Pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, result.Pair.RefreshToken, rotated.RefreshToken)

	// The superseded token is dead.
	_, err = f.manager.Refresh(ctx, result.Pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// The fresh one works.
	_, err = f.manager.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_OnlyLatestOfNValidates(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	result, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	issued := []string{result.Pair.RefreshToken}
	current := result.Pair.RefreshToken
	for i := 0; i < 5; i++ {
		pair, err := f.manager.Refresh(ctx, current)
		require.NoError(t, err)
		current = pair.RefreshToken
		issued = append(issued, current)
	}

	for _, stale := range issued[:len(issued)-1] {
		_, err := f.manager.Refresh(ctx, stale)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	}
	_, err = f.manager.Refresh(ctx, current)
	require.NoError(t, err)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	result, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	_, err = f.manager.Refresh(ctx, result.Pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefresh_ExpiredRefreshToken(t *testing.T) {
	now := time.Now()
	pr := principals.NewInMemoryRepo()
	store := sessions.NewStore(sessions.NewInMemoryRepo())
	issuer := token.New(
		token.NewHMACSigner("access-secret"),
		token.NewHMACSigner("refresh-secret"),
		token.WithNowFunc(func() time.Time { return now }),
	)
	manager, err := auth.NewSessionManager(auth.Repos{Principals: pr}, store, issuer)
	require.NoError(t, err)

	ctx := context.Background()
	p := &principals.Principal{Username: testUsername, Email: testEmail}
	require.NoError(t, manager.Register(ctx, p, testPassword))

	result, err := manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	_, err = manager.Refresh(ctx, result.Pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefresh_ConcurrentRefreshesOnlyOneWins(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	result, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	const callers = 8
	errs := make([]error, callers)
	pairs := make([]*token.Pair, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pairs[i], errs[i] = f.manager.Refresh(ctx, result.Pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	wins := 0
	var winner *token.Pair
	for i := range errs {
		if errs[i] == nil {
			wins++
			winner = pairs[i]
		} else {
			require.ErrorIs(t, errs[i], apperrors.ErrUnauthorized)
		}
	}
	require.Equal(t, 1, wins)

	// The winner's token is the store's single live session.
	_, err = f.manager.Refresh(ctx, winner.RefreshToken)
	require.NoError(t, err)
}

func TestInvalidate_Idempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	result, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	require.NoError(t, f.manager.Invalidate(ctx, result.Pair.AccessToken))
	require.NoError(t, f.manager.Invalidate(ctx, result.Pair.AccessToken))

	_, err = f.manager.Refresh(ctx, result.Pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestInvalidate_AcceptsRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	result, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	require.NoError(t, f.manager.Invalidate(ctx, result.Pair.RefreshToken))

	_, err = f.manager.Refresh(ctx, result.Pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestInvalidate_RejectsGarbageToken(t *testing.T) {
	f := setupTestFixture(t)
	require.ErrorIs(t, f.manager.Invalidate(context.Background(), "not-a-token"), apperrors.ErrUnauthorized)
}

func TestAuthorizeRefresh_ChecksStore(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestPrincipal(t, testUsername, testEmail, testPassword)

	result, err := f.manager.SignIn(ctx, testUsername, testPassword)
	require.NoError(t, err)

	claims, err := f.manager.AuthorizeRefresh(ctx, result.Pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, result.Principal.ID, claims.Subject)

	// AuthorizeRefresh is read-only; the token still rotates afterwards.
	_, err = f.manager.Refresh(ctx, result.Pair.RefreshToken)
	require.NoError(t, err)

	_, err = f.manager.AuthorizeRefresh(ctx, result.Pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
