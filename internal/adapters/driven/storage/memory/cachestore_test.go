package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCacheStore() (*CacheStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewCacheStore()
	store.SetClock(clock.Now)
	return store, clock
}

func TestCacheStore_PutGet(t *testing.T) {
	store, _ := newTestCacheStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "vectors:abc", []byte("blob"), time.Hour))

	got, err := store.Get(ctx, "vectors:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)

	_, err = store.Get(ctx, "vectors:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCacheStore_PutEmptyKey(t *testing.T) {
	store, _ := newTestCacheStore()
	assert.ErrorIs(t, store.Put(context.Background(), "", nil, 0), domain.ErrInvalidInput)
}

func TestCacheStore_ExpiresOnRead(t *testing.T) {
	store, clock := newTestCacheStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "search:wikipedia:q", []byte("x"), 30*time.Minute))
	require.NoError(t, store.Put(ctx, "vectors:forever", []byte("y"), 0))

	clock.Advance(29 * time.Minute)
	_, err := store.Get(ctx, "search:wikipedia:q")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = store.Get(ctx, "search:wikipedia:q")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	clock.Advance(24 * time.Hour)
	_, err = store.Get(ctx, "vectors:forever")
	assert.NoError(t, err)
}

func TestCacheStore_SweepAndStats(t *testing.T) {
	store, clock := newTestCacheStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "vectors:a", []byte("1"), time.Hour))
	require.NoError(t, store.Put(ctx, "vectors:b", []byte("2"), time.Minute))
	require.NoError(t, store.Put(ctx, "search:duckduckgo:c", []byte("3"), time.Hour))

	clock.Advance(2 * time.Minute)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries[domain.NamespaceVectors])
	assert.Equal(t, 1, stats.Entries[domain.NamespaceSearch])
	assert.Equal(t, 1, stats.Expired)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Expired)
}

func TestCacheStore_PurgeAndDelete(t *testing.T) {
	store, _ := newTestCacheStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "vectors:a", []byte("1"), 0))
	require.NoError(t, store.Put(ctx, "vectors:b", []byte("2"), 0))
	require.NoError(t, store.Put(ctx, "search:wikipedia:c", []byte("3"), 0))

	n, err := store.Purge(ctx, "vectors:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.Delete(ctx, "search:wikipedia:c"))
	require.NoError(t, store.Delete(ctx, "search:wikipedia:c"))

	n, err = store.Purge(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCacheStore_ValueIsCopied(t *testing.T) {
	store, _ := newTestCacheStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}
