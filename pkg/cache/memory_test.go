package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func newTestCache(t *testing.T, opts ...MemoryOption) (*MemoryCache, *time.Time) {
	t.Helper()
	opts = append([]MemoryOption{WithMemoryCleanup(0)}, opts...)
	mc := NewMemoryCache(opts...)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	t.Cleanup(func() { _ = mc.Close() })
	return mc, &now
}

func TestMemoryCacheRoundTripsJSON(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestCache(t)

	require.NoError(t, mc.Set(ctx, "dataset:1", payload{Name: "A", Price: 9.5}, 0))
	got, err := GetTyped[payload](ctx, mc, "dataset:1")
	require.NoError(t, err)
	require.Equal(t, payload{Name: "A", Price: 9.5}, got)

	require.NoError(t, mc.Set(ctx, "raw", "hello", 0))
	var s string
	require.NoError(t, mc.Get(ctx, "raw", &s))
	require.Equal(t, "hello", s)

	var missing payload
	require.ErrorIs(t, mc.Get(ctx, "nope", &missing), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestCache(t)

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	*now = now.Add(30 * time.Second)
	ok, err := mc.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	*now = now.Add(45 * time.Second)
	var v string
	require.NoError(t, mc.Get(ctx, "k", &v))

	*now = now.Add(time.Minute)
	require.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)

	ok, err = mc.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCacheListByPrefix(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestCache(t)

	require.NoError(t, mc.Set(ctx, "dataset:b", 1, 0))
	require.NoError(t, mc.Set(ctx, "dataset:a", 1, 0))
	require.NoError(t, mc.Set(ctx, "dataset:c", 1, time.Second))
	require.NoError(t, mc.Set(ctx, "enriched:a", 1, 0))
	*now = now.Add(2 * time.Second)

	keys, err := mc.ListByPrefix(ctx, "dataset:")
	require.NoError(t, err)
	require.Equal(t, []string{"dataset:a", "dataset:b"}, keys)

	require.NoError(t, mc.Delete(ctx, "dataset:a", "dataset:b"))
	keys, err = mc.ListByPrefix(ctx, "dataset:")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestCache(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	*now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	*now = now.Add(time.Second)
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	*now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	require.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.Equal(t, 1, v)
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestCache(t)

	ok, err := mc.TryLock(ctx, "lock:enrich:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = mc.TryLock(ctx, "lock:enrich:1", time.Minute)
	require.False(t, ok)

	*now = now.Add(2 * time.Minute)
	ok, _ = mc.TryLock(ctx, "lock:enrich:1", time.Minute)
	require.True(t, ok)

	require.NoError(t, mc.Unlock(ctx, "lock:enrich:1"))
	ok, _ = mc.TryLock(ctx, "lock:enrich:1", time.Minute)
	require.True(t, ok)
}

func TestGenerateKeyAndPattern(t *testing.T) {
	require.Equal(t, "dataset:abc", GenerateKey("dataset", "abc"))
	require.Equal(t, "window:cat:42", GenerateKey("window", "cat", 42))
	require.Equal(t, `priceopt:dataset:\*x*`, BuildPattern("priceopt:dataset:*x"))
}
