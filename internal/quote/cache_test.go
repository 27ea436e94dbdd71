package quote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgecore/pms/internal/model"
)

func TestCacheKeyDeterministic(t *testing.T) {
	ci := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	co := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)

	a := CacheKey(1, ci, co, 2, 0, []string{"DBL", "STE"})
	b := CacheKey(1, ci, co, 2, 0, []string{"STE", "DBL"})
	assert.Equal(t, a, b, "room type filter order must not change the key")

	assert.NotEqual(t, a, CacheKey(2, ci, co, 2, 0, []string{"DBL", "STE"}))
	assert.NotEqual(t, a, CacheKey(1, ci, co, 3, 0, []string{"DBL", "STE"}))
	assert.NotEqual(t, a, CacheKey(1, ci, co, 2, 0, nil))
}

func TestCacheExpiresByInjectedClock(t *testing.T) {
	current := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	cache := NewCache(100, 30*time.Minute, func() time.Time { return current })

	quotes := []model.Quote{{QuoteID: "q-1", RoomTypeCode: "DBL"}}
	cache.Put("k", quotes)

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "q-1", got[0].QuoteID)

	// one second short of the TTL the entry is still fresh
	current = current.Add(30*time.Minute - time.Second)
	_, ok = cache.Get("k")
	assert.True(t, ok)

	// past the TTL it is gone
	current = current.Add(2 * time.Second)
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	cache := NewCache(100, time.Minute, nil)
	_, ok := cache.Get("nope")
	assert.False(t, ok)
}
