package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "test", time.Hour)
	token, err := store.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, store.SetToken(ctx, "tok-r"))
	got, err := mr.Get("test:token")
	require.NoError(t, err)
	require.Equal(t, "tok-r", got)
	require.Equal(t, time.Hour, mr.TTL("test:token"))

	token, err = store.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-r", token)

	require.NoError(t, store.RemoveToken(ctx))
	require.False(t, mr.Exists("test:token"))
	require.NoError(t, store.RemoveToken(ctx))
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "", time.Minute)
	require.NoError(t, store.SetToken(ctx, "short"))
	mr.FastForward(2 * time.Minute)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisStore(client, "x", 0).Token(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
