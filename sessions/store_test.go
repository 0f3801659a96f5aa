package sessions_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/sessions"
	"github.com/stretchr/testify/require"
)

func TestStore_PutThenValidate(t *testing.T) {
	store := sessions.NewStore(sessions.NewInMemoryRepo())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "raw-token"))
	require.NoError(t, store.Validate(ctx, 1, "raw-token"))
}

func TestStore_ValidateUnknownPrincipal(t *testing.T) {
	store := sessions.NewStore(sessions.NewInMemoryRepo())

	err := store.Validate(context.Background(), 404, "anything")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestStore_PutReplacesPriorSession(t *testing.T) {
	store := sessions.NewStore(sessions.NewInMemoryRepo())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "first"))
	require.NoError(t, store.Put(ctx, 1, "second"))

	require.ErrorIs(t, store.Validate(ctx, 1, "first"), apperrors.ErrUnauthorized)
	require.NoError(t, store.Validate(ctx, 1, "second"))
}

func TestStore_OneSlotPerPrincipal(t *testing.T) {
	store := sessions.NewStore(sessions.NewInMemoryRepo())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "token-1"))
	require.NoError(t, store.Put(ctx, 2, "token-2"))

	require.NoError(t, store.Validate(ctx, 1, "token-1"))
	require.NoError(t, store.Validate(ctx, 2, "token-2"))
	require.ErrorIs(t, store.Validate(ctx, 1, "token-2"), apperrors.ErrUnauthorized)
}

func TestStore_InvalidateIsIdempotent(t *testing.T) {
	store := sessions.NewStore(sessions.NewInMemoryRepo())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "raw-token"))
	require.NoError(t, store.Invalidate(ctx, 1))
	require.NoError(t, store.Invalidate(ctx, 1))

	require.ErrorIs(t, store.Validate(ctx, 1, "raw-token"), apperrors.ErrUnauthorized)
}

func TestHashToken_StableAndOpaque(t *testing.T) {
	h1 := sessions.HashToken("token")
	h2 := sessions.HashToken("token")
	require.Equal(t, h1, h2)
	require.NotEqual(t, "token", h1)
	require.NotEqual(t, h1, sessions.HashToken("other"))
}
