// Package middleware carries the Echo middleware shared by all route
// groups: tenant context extraction and distributed rate limiting.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by PropertyContext and read by the handlers.
const (
	PropertyIDKey = "property_id"
	ChannelKey    = "channel"
)

// DefaultChannel is assumed when a caller does not identify itself.
const DefaultChannel = "DIRECT"

// PropertyContext resolves the tenant from the X-Property-ID header and
// the distribution channel from X-Channel.  Every /v1 route operates on
// behalf of exactly one property, so a missing or malformed header is a
// hard 400 rather than a fallback.
func PropertyContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get("X-Property-ID")
			if raw == "" {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"code":    "CONTEXT_INVALID",
					"message": "X-Property-ID header is required",
				})
			}
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"code":    "CONTEXT_INVALID",
					"message": "X-Property-ID must be a positive integer",
				})
			}

			channel := c.Request().Header.Get("X-Channel")
			if channel == "" {
				channel = DefaultChannel
			}

			c.Set(PropertyIDKey, id)
			c.Set(ChannelKey, channel)
			return next(c)
		}
	}
}

// RequireChannel rejects requests that do not identify their
// distribution channel.  Channel-sourced ARI traffic must say who it is;
// guest-facing routes keep the DIRECT default instead.
func RequireChannel() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Channel") == "" {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"code":    "CONTEXT_INVALID",
					"message": "X-Channel header is required",
				})
			}
			return next(c)
		}
	}
}

// PropertyID reads the tenant set by PropertyContext.  It returns 0 when
// the middleware did not run, which handlers treat as a programming error.
func PropertyID(c echo.Context) uint64 {
	if v, ok := c.Get(PropertyIDKey).(uint64); ok {
		return v
	}
	return 0
}

// Channel reads the distribution channel set by PropertyContext.
func Channel(c echo.Context) string {
	if v, ok := c.Get(ChannelKey).(string); ok && v != "" {
		return v
	}
	return DefaultChannel
}
