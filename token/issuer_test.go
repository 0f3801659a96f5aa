package token_test

import (
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/token"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
	testIssuer    = "com.testissuer"
)

func newTestIssuer(now func() time.Time) *token.Issuer {
	opts := []token.IssuerOption{token.WithIssuer(testIssuer)}
	if now != nil {
		opts = append(opts, token.WithNowFunc(now))
	}
	return token.New(
		token.NewHMACSigner(accessSecret),
		token.NewHMACSigner(refreshSecret),
		opts...,
	)
}

func TestIssuePairAndVerify(t *testing.T) {
	issuer := newTestIssuer(nil)

	pair, err := issuer.IssuePair(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "bearer", pair.TokenType)
	require.Equal(t, 3600, pair.ExpiresIn)

	accessClaims, err := issuer.Verify(pair.AccessToken, token.UseAccess)
	require.NoError(t, err)
	require.Equal(t, int64(42), accessClaims.Subject)
	require.Equal(t, "alice", accessClaims.Username)
	require.Equal(t, token.UseAccess, accessClaims.Use)
	require.NotEmpty(t, accessClaims.ID)

	refreshClaims, err := issuer.Verify(pair.RefreshToken, token.UseRefresh)
	require.NoError(t, err)
	require.Equal(t, int64(42), refreshClaims.Subject)
	require.Equal(t, token.UseRefresh, refreshClaims.Use)
}

func TestVerify_RejectsWrongUse(t *testing.T) {
	issuer := newTestIssuer(nil)

	pair, err := issuer.IssuePair(1, "bob")
	require.NoError(t, err)

	_, err = issuer.Verify(pair.AccessToken, token.UseRefresh)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = issuer.Verify(pair.RefreshToken, token.UseAccess)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestVerify_RejectsTamperedToken(t *testing.T) {
	issuer := newTestIssuer(nil)

	pair, err := issuer.IssuePair(1, "bob")
	require.NoError(t, err)

	tampered := pair.AccessToken + "x"
	_, err = issuer.Verify(tampered, token.UseAccess)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer(nil)
	other := token.New(
		token.NewHMACSigner("other-access"),
		token.NewHMACSigner("other-refresh"),
		token.WithIssuer(testIssuer),
	)

	pair, err := other.IssuePair(1, "bob")
	require.NoError(t, err)

	_, err = issuer.Verify(pair.AccessToken, token.UseAccess)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestVerify_Expiry(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(func() time.Time { return now })

	pair, err := issuer.IssuePair(7, "carol")
	require.NoError(t, err)

	// Access token expires after an hour, refresh after a day.
	now = now.Add(2 * time.Hour)
	_, err = issuer.Verify(pair.AccessToken, token.UseAccess)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)

	_, err = issuer.Verify(pair.RefreshToken, token.UseRefresh)
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	_, err = issuer.Verify(pair.RefreshToken, token.UseRefresh)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestVerify_EmptyToken(t *testing.T) {
	issuer := newTestIssuer(nil)
	_, err := issuer.Verify("", token.UseAccess)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
