package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ""), mr
}

func TestRedisRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, mr := newTestRedis(t)

	_, ok, err := c.Get(ctx, "https://example.com/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "https://example.com/a.png", []byte("PNG")))

	got, ok, err := c.Get(ctx, "https://example.com/a.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("PNG"), got)

	stored, err := mr.Get("embed:https__example_com_a_png")
	require.NoError(t, err)
	assert.Equal(t, "PNG", stored)
	assert.Zero(t, mr.TTL("embed:https__example_com_a_png"))
}

func TestRedisCustomPrefix(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedis(client, "mail:")

	require.NoError(t, c.Set(context.Background(), "foo", []byte("bar")))
	assert.True(t, mr.Exists("mail:foo"))
}

func TestRedisEmptySlug(t *testing.T) {
	t.Parallel()

	c, _ := newTestRedis(t)
	assert.ErrorIs(t, c.Set(context.Background(), "%%", []byte("x")), ErrEmptyKey)
}

func TestRedisPingAndFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, mr := newTestRedis(t)
	require.NoError(t, c.Ping(ctx))

	mr.Close()
	_, _, err := c.Get(ctx, "foo")
	assert.Error(t, err)
}
