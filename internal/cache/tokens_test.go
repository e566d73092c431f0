package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tokenCaches(t *testing.T) map[string]*TokenCache {
	t.Helper()
	_, redisStore := newRedisStoreForTest(t)
	return map[string]*TokenCache{
		"redis":    NewTokenCache(redisStore),
		"database": NewTokenCache(newDatabaseStoreForTest(t)),
	}
}

func TestTokenCacheRoundTrip(t *testing.T) {
	for name, tokens := range tokenCaches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, tokens.SetToken(ctx, "abc", "admin@example.com", PurposeInvitation, time.Hour))

			record, err := tokens.GetToken(ctx, "abc")
			require.NoError(t, err)
			require.NotNil(t, record)
			require.Equal(t, "admin@example.com", record.Email)
			require.Equal(t, PurposeInvitation, record.Purpose)

			token, err := tokens.TokenByEmail(ctx, "Admin@Example.com", PurposeInvitation)
			require.NoError(t, err)
			require.Equal(t, "abc", token)

			token, err = tokens.TokenByEmail(ctx, "admin@example.com", PurposeForgotPassword)
			require.NoError(t, err)
			require.Empty(t, token, "index is scoped per purpose")

			require.NoError(t, tokens.DeleteToken(ctx, "abc"))

			record, err = tokens.GetToken(ctx, "abc")
			require.NoError(t, err)
			require.Nil(t, record)

			token, err = tokens.TokenByEmail(ctx, "admin@example.com", PurposeInvitation)
			require.NoError(t, err)
			require.Empty(t, token)
		})
	}
}

func TestTokenCacheDeleteKeepsNewerIndex(t *testing.T) {
	for name, tokens := range tokenCaches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, tokens.SetToken(ctx, "first", "a@x.com", PurposeForgotPassword, time.Hour))
			require.NoError(t, tokens.SetToken(ctx, "second", "a@x.com", PurposeForgotPassword, time.Hour))

			require.NoError(t, tokens.DeleteToken(ctx, "first"))

			token, err := tokens.TokenByEmail(ctx, "a@x.com", PurposeForgotPassword)
			require.NoError(t, err)
			require.Equal(t, "second", token)
		})
	}
}

func TestTokenCacheMissingToken(t *testing.T) {
	for name, tokens := range tokenCaches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			record, err := tokens.GetToken(ctx, "missing")
			require.NoError(t, err)
			require.Nil(t, record)

			record, err = tokens.GetToken(ctx, "")
			require.NoError(t, err)
			require.Nil(t, record)

			require.NoError(t, tokens.DeleteToken(ctx, "missing"))
		})
	}
}

func TestTokenCacheExpiresIndexWithToken(t *testing.T) {
	m, store := newRedisStoreForTest(t)
	tokens := NewTokenCache(store)
	ctx := context.Background()

	require.NoError(t, tokens.SetToken(ctx, "abc", "a@x.com", PurposeInvitation, time.Minute))
	m.FastForward(2 * time.Minute)

	record, err := tokens.GetToken(ctx, "abc")
	require.NoError(t, err)
	require.Nil(t, record)

	token, err := tokens.TokenByEmail(ctx, "a@x.com", PurposeInvitation)
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestTokenCacheRejectsInvalidInput(t *testing.T) {
	tokens := NewTokenCache(newDatabaseStoreForTest(t))
	ctx := context.Background()

	require.Error(t, tokens.SetToken(ctx, "", "a@x.com", PurposeInvitation, time.Minute))
	require.Error(t, tokens.SetToken(ctx, "abc", "a@x.com", PurposeInvitation, 0))

	var unset *TokenCache
	_, err := unset.GetToken(ctx, "abc")
	require.Error(t, err)
}

func TestTokenCacheSurfacesStoreFailures(t *testing.T) {
	m, store := newRedisStoreForTest(t)
	tokens := NewTokenCache(store)
	m.Close()

	err := tokens.SetToken(context.Background(), "abc", "a@x.com", PurposeInvitation, time.Minute)
	require.Error(t, err)

	_, err = tokens.GetToken(context.Background(), "abc")
	require.Error(t, err)
}
