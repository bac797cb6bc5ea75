package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/infrastructure/auth"
	"github.com/lllypuk/taskboard/tests/testutil"
)

func setupTokenStore(t *testing.T) *auth.TokenStore {
	t.Helper()

	client, prefix := testutil.SetupTestRedisWithPrefix(t)

	return auth.NewTokenStore(auth.TokenStoreConfig{
		Client:    client,
		KeyPrefix: prefix,
	})
}

func TestTokenStore_StoreAndCheck(t *testing.T) {
	store := setupTokenStore(t)
	ctx := context.Background()
	userID := id.New()

	require.NoError(t, store.StoreRefreshToken(ctx, userID, "jti-1", time.Hour))

	require.NoError(t, store.CheckRefreshToken(ctx, userID, "jti-1"))
	require.ErrorIs(t, store.CheckRefreshToken(ctx, userID, "jti-2"), auth.ErrTokenNotFound)
	require.ErrorIs(t, store.CheckRefreshToken(ctx, id.New(), "jti-1"), auth.ErrTokenNotFound)
}

func TestTokenStore_Validation(t *testing.T) {
	store := setupTokenStore(t)
	ctx := context.Background()

	require.Error(t, store.StoreRefreshToken(ctx, id.ID(""), "jti", time.Hour))
	require.Error(t, store.StoreRefreshToken(ctx, id.New(), "", time.Hour))
	require.Error(t, store.CheckRefreshToken(ctx, id.ID(""), "jti"))
	require.Error(t, store.DeleteRefreshToken(ctx, id.New(), ""))
	_, err := store.DeleteAllForUser(ctx, id.ID(""))
	require.Error(t, err)
}

func TestTokenStore_Expiry(t *testing.T) {
	store := setupTokenStore(t)
	ctx := context.Background()
	userID := id.New()

	require.NoError(t, store.StoreRefreshToken(ctx, userID, "short", 100*time.Millisecond))

	require.Eventually(t, func() bool {
		return store.CheckRefreshToken(ctx, userID, "short") != nil
	}, 2*time.Second, 50*time.Millisecond)
}

func TestTokenStore_DeleteRefreshToken(t *testing.T) {
	store := setupTokenStore(t)
	ctx := context.Background()
	userID := id.New()

	require.NoError(t, store.StoreRefreshToken(ctx, userID, "jti-1", time.Hour))

	require.NoError(t, store.DeleteRefreshToken(ctx, userID, "jti-1"))
	require.ErrorIs(t, store.CheckRefreshToken(ctx, userID, "jti-1"), auth.ErrTokenNotFound)
	require.ErrorIs(t, store.DeleteRefreshToken(ctx, userID, "jti-1"), auth.ErrTokenNotFound)
}

func TestTokenStore_DeleteAllForUser(t *testing.T) {
	store := setupTokenStore(t)
	ctx := context.Background()
	userID, other := id.New(), id.New()

	for _, jti := range []string{"a", "b", "c"} {
		require.NoError(t, store.StoreRefreshToken(ctx, userID, jti, time.Hour))
	}
	require.NoError(t, store.StoreRefreshToken(ctx, other, "a", time.Hour))

	removed, err := store.DeleteAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	require.ErrorIs(t, store.CheckRefreshToken(ctx, userID, "b"), auth.ErrTokenNotFound)
	require.NoError(t, store.CheckRefreshToken(ctx, other, "a"))
}
