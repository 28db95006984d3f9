package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type detail struct {
	ID    string `json:"id"`
	Total string `json:"total"`
}

func newRedisStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute), mr
}

func TestRedisStoreJSONRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	key := OrderKey("o1")

	require.NoError(t, SetJSON(ctx, store, key, detail{ID: "o1", Total: "500"}, 0))
	assert.Equal(t, time.Minute, mr.TTL(key))

	var got detail
	require.NoError(t, GetJSON(ctx, store, key, &got))
	assert.Equal(t, detail{ID: "o1", Total: "500"}, got)

	require.NoError(t, store.Delete(ctx, key))
	assert.ErrorIs(t, GetJSON(ctx, store, key, &got), ErrCacheMiss)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 2*time.Second))
	mr.FastForward(3 * time.Second)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStoreRejectsEmptyKey(t *testing.T) {
	store, _ := newRedisStore(t)
	assert.Error(t, store.Set(context.Background(), "", []byte("v"), 0))

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNoopAlwaysMisses(t *testing.T) {
	store := Noop()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
