package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgecore/pms/internal/config"
)

func newLimiter(t *testing.T, capacity int) echo.MiddlewareFunc {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_property_route",
		Prefix:         "rl",
	}
	return NewTokenBucket(cfg, rdb)
}

func doRequest(e *echo.Echo, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", nil)
	req.Header.Set("X-Property-ID", "1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(PropertyIDKey, uint64(1))

	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	_ = handler(c)
	return rec
}

func TestTokenBucketAllowsWithinCapacity(t *testing.T) {
	e := echo.New()
	mw := newLimiter(t, 3)

	for i := 0; i < 3; i++ {
		rec := doRequest(e, mw)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestTokenBucketBlocksWhenExhausted(t *testing.T) {
	e := echo.New()
	mw := newLimiter(t, 2)

	require.Equal(t, http.StatusOK, doRequest(e, mw).Code)
	require.Equal(t, http.StatusOK, doRequest(e, mw).Code)

	rec := doRequest(e, mw)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketDisabledIsNoOp(t *testing.T) {
	e := echo.New()
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, doRequest(e, mw).Code)
	}
}

func TestTokenBucketFailsOpenWithoutRedis(t *testing.T) {
	e := echo.New()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	mw := NewTokenBucket(config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
	}, rdb)
	srv.Close() // redis goes away after startup

	require.Equal(t, http.StatusOK, doRequest(e, mw).Code)
	require.Equal(t, http.StatusOK, doRequest(e, mw).Code)
}
