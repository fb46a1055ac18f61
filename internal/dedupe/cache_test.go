package dedupe_test

import (
	"testing"
	"time"

	"github.com/bricksniper/notifier/internal/dedupe"
	"github.com/stretchr/testify/require"
)

func TestCacheRecordAndHas(t *testing.T) {
	cache := dedupe.NewCache()
	require.False(t, cache.Has("alpha"))
	cache.Record("alpha", time.Now())
	require.True(t, cache.Has("alpha"))
	require.False(t, cache.Has("beta"))
	require.Equal(t, 1, cache.Len())
}

func TestCacheRecordIsIdempotent(t *testing.T) {
	cache := dedupe.NewCache()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cache.Record("alpha", base)
	// A later sighting must not refresh the original timestamp.
	cache.Record("alpha", base.Add(time.Hour))
	require.Equal(t, 1, cache.Len())

	// Evicting just past the first timestamp removes the entry, proving the
	// second Record did not extend its lifetime.
	require.Equal(t, 1, cache.Evict(base.Add(time.Second)))
	require.False(t, cache.Has("alpha"))
}

func TestCacheEvictRemovesOnlyOldEntries(t *testing.T) {
	cache := dedupe.NewCache()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cache.Record("old-1", base)
	cache.Record("old-2", base.Add(time.Minute))
	cache.Record("fresh", base.Add(2*time.Hour))

	removed := cache.Evict(base.Add(time.Hour))
	require.Equal(t, 2, removed)
	require.False(t, cache.Has("old-1"))
	require.False(t, cache.Has("old-2"))
	require.True(t, cache.Has("fresh"))
	require.Equal(t, 1, cache.Len())
}

func TestCacheEvictNothingToDo(t *testing.T) {
	cache := dedupe.NewCache()
	require.Equal(t, 0, cache.Evict(time.Now()))

	cache.Record("alpha", time.Now())
	require.Equal(t, 0, cache.Evict(time.Now().Add(-time.Hour)))
	require.True(t, cache.Has("alpha"))
}

func TestCacheEvictedIDCanBeRecordedAgain(t *testing.T) {
	cache := dedupe.NewCache()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cache.Record("alpha", base)
	cache.Evict(base.Add(time.Minute))
	require.False(t, cache.Has("alpha"))

	cache.Record("alpha", base.Add(time.Hour))
	require.True(t, cache.Has("alpha"))
	require.Equal(t, 1, cache.Len())
}
