package quote

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/lodgecore/pms/internal/model"
)

// Cache is the process-wide quote cache: bounded in size, expiring by
// wall-clock TTL.  ccache supplies the size cap and LRU eviction; the
// stored-at check against the injected clock supplies deterministic TTL
// semantics tests can control.
type Cache struct {
	lru *ccache.Cache[cachedQuotes]
	ttl time.Duration
	now func() time.Time
}

type cachedQuotes struct {
	quotes   []model.Quote
	storedAt time.Time
}

// NewCache builds a quote cache with the given capacity and TTL.  A nil
// clock defaults to time.Now.
func NewCache(maxEntries int64, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		lru: ccache.New(ccache.Configure[cachedQuotes]().MaxSize(maxEntries)),
		ttl: ttl,
		now: now,
	}
}

// TTL returns the cache's entry lifetime, which is also the quote
// validity window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached quotes for a key when present and fresh.
func (c *Cache) Get(key string) ([]model.Quote, bool) {
	item := c.lru.Get(key)
	if item == nil {
		return nil, false
	}
	entry := item.Value()
	if c.now().After(entry.storedAt.Add(c.ttl)) {
		c.lru.Delete(key)
		return nil, false
	}
	return entry.quotes, true
}

// Put stores the quotes for a key.
func (c *Cache) Put(key string, quotes []model.Quote) {
	c.lru.Set(key, cachedQuotes{quotes: quotes, storedAt: c.now()}, c.ttl)
}

// CacheKey derives the deterministic cache key for a quote request: a
// hash of (property, check-in, check-out, adults, children, sorted
// room-type filter).  The rate-plan filter is deliberately not part of
// the key; the engine filters cached results by plan instead.
func CacheKey(propertyID uint64, checkIn, checkOut time.Time, adults, children int, roomTypeCodes []string) string {
	codes := make([]string, len(roomTypeCodes))
	copy(codes, roomTypeCodes)
	sort.Strings(codes)
	parts := []string{
		strconv.FormatUint(propertyID, 10),
		checkIn.Format(model.DateOnly),
		checkOut.Format(model.DateOnly),
		strconv.Itoa(adults),
		strconv.Itoa(children),
		strings.Join(codes, ","),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("quotes:%x", sum[:])
}
