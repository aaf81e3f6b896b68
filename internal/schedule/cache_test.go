package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(client, time.Minute, nil), mr
}

func sampleDays() []DaySlots {
	return []DaySlots{{
		Date:         "2026-03-02",
		DisplayLabel: "Monday, March 2",
		Slots: []Slot{{
			StartTime:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			EndTime:        time.Date(2026, 3, 2, 9, 20, 0, 0, time.UTC),
			FormattedLabel: "9:00 AM - 9:20 AM",
		}},
	}}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "doc-1")
	assert.False(t, ok)

	cache.Set(ctx, "doc-1", sampleDays())

	days, ok := cache.Get(ctx, "doc-1")
	require.True(t, ok)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-03-02", days[0].Date)
	require.Len(t, days[0].Slots, 1)
	assert.True(t, days[0].Slots[0].StartTime.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "doc-1", sampleDays())
	cache.Invalidate(ctx, "doc-1")

	_, ok := cache.Get(ctx, "doc-1")
	assert.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "doc-1", sampleDays())
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, "doc-1")
	assert.False(t, ok)
}

func TestCacheKeysAreScopedPerDoctor(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "doc-1", sampleDays())
	cache.Invalidate(ctx, "doc-2")

	_, ok := cache.Get(ctx, "doc-1")
	assert.True(t, ok)
	_, ok = cache.Get(ctx, "doc-2")
	assert.False(t, ok)
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	cache.Set(ctx, "doc-1", sampleDays())
	cache.Invalidate(ctx, "doc-1")
	_, ok := cache.Get(ctx, "doc-1")
	assert.False(t, ok)
}
