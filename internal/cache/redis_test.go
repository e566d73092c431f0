package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStoreForTest(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return m, NewRedisStoreFromClient(client, "taskdesk_test")
}

func TestRedisStoreSetGetDelete(t *testing.T) {
	m, store := newRedisStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.True(t, m.Exists("taskdesk_test:k"), "expected key to carry the prefix")

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(value))

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreExpiry(t *testing.T) {
	m, store := newRedisStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Second))
	m.FastForward(2 * time.Second)

	_, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreIncrementWithTTL(t *testing.T) {
	m, store := newRedisStoreForTest(t)
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Greater(t, ttl, time.Duration(0))

	count, _, err = store.IncrementWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	m.FastForward(2 * time.Minute)
	count, _, err = store.IncrementWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "expected window to restart after expiry")
}

func TestRedisStorePingAndBackendErrors(t *testing.T) {
	m, store := newRedisStoreForTest(t)
	require.NoError(t, store.Ping(context.Background()))

	m.Close()
	require.Error(t, store.Ping(context.Background()))

	var nilStore *RedisStore
	require.Error(t, nilStore.Set(context.Background(), "k", nil, 0))
}

func TestNewRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{})
	require.Error(t, err)
}

func TestNewRedisStoreDialsServer(t *testing.T) {
	m := miniredis.RunT(t)

	store, err := NewRedisStore(context.Background(), RedisConfig{Address: m.Addr(), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), 0))
	require.True(t, m.Exists("taskdesk:k"))
}
