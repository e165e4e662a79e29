package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connectStatus struct {
	AccountID      string
	PayoutsEnabled bool
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	want := connectStatus{AccountID: "acct_1", PayoutsEnabled: true}
	require.NoError(t, c.Set(ctx, ConnectStatusKey("u1"), want, time.Minute))
	assert.True(t, mr.Exists("connect_status:u1"))

	var got connectStatus
	found, err := c.Get(ctx, ConnectStatusKey("u1"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestRedisCache_MissReturnsFalse(t *testing.T) {
	c, _ := newTestCache(t)

	var got connectStatus
	found, err := c.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))

	var got string
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNew_LocalOnly(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 42, time.Minute))

	var got int
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, got)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("://bad")
	assert.Error(t, err)
}
