// Package router wires the HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/lodgecore/pms/internal/handler"
	"github.com/lodgecore/pms/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Quotes       *handler.QuoteHandler
	Bookings     *handler.BookingHandler
	Ari          *handler.AriHandler
	Admin        *handler.AdminHandler
	Availability *handler.AvailabilityHandler
}

// RegisterRoutes mounts the public health check and the tenant-scoped
// /v1 API.  Every /v1 route runs the property-context middleware plus
// any extras the caller passes (rate limiting in production).
func RegisterRoutes(e *echo.Echo, h Handlers, extra ...echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.PropertyContext())
	v1.Use(extra...)

	// quoting and booking
	v1.POST("/quotes", h.Quotes.GenerateQuotes)
	v1.POST("/bookings", h.Bookings.CreateBooking)
	v1.GET("/reservations/:pnr", h.Bookings.GetReservation)
	v1.POST("/reservations/:id/cancel", h.Bookings.CancelReservation)

	// ARI ingestion and bulk management; channel-sourced traffic must
	// identify its channel
	ariGroup := v1.Group("/ari", middleware.RequireChannel())
	ariGroup.POST("/events", h.Ari.IngestEvent)
	ariGroup.POST("/bulk", h.Ari.BulkUpdate)
	ariGroup.POST("/bulk/:eventId/undo", h.Ari.UndoBulk)

	// read models and catalog administration
	v1.GET("/property", h.Admin.GetProperty)
	v1.GET("/availability", h.Availability.Calendar)
	v1.POST("/room-types", h.Admin.CreateRoomType)
	v1.GET("/room-types", h.Admin.ListRoomTypes)
	v1.POST("/rate-plans", h.Admin.CreateRatePlan)
	v1.GET("/rate-plans", h.Admin.ListRatePlans)
}
