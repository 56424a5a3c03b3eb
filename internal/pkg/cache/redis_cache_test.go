package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Set(ctx, "k", payload{Name: "docs"}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "docs", got.Name)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestRedisCache_Hash(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.HGetAll(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.HMSet(ctx, "h", map[string]any{"id": "1", "name": "root"}))
	require.NoError(t, c.Expire(ctx, "h", time.Minute))

	got, err := c.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "1", "name": "root"}, got)

	require.NoError(t, c.Del(ctx, "h"))
	_, err = c.HGetAll(ctx, "h")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_ErrorsWhenServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var v string
	err := c.Get(context.Background(), "k", &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
