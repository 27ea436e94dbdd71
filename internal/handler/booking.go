package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lodgecore/pms/internal/booking"
	"github.com/lodgecore/pms/internal/idempotency"
	"github.com/lodgecore/pms/internal/middleware"
	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/repository"
)

// BookingHandler exposes booking creation, lookup and cancellation.
// Creation is wrapped in the idempotency guard so a client retrying on a
// timeout cannot double-book.
type BookingHandler struct {
	engine       *booking.Engine
	guard        *idempotency.Guard
	reservations *repository.ReservationRepo
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(engine *booking.Engine, guard *idempotency.Guard, reservations *repository.ReservationRepo) *BookingHandler {
	return &BookingHandler{engine: engine, guard: guard, reservations: reservations}
}

type bookingGuest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type bookingRequest struct {
	QuoteID          string       `json:"quote_id"`
	PricingSignature string       `json:"pricing_signature"`
	CheckIn          string       `json:"check_in"`
	CheckOut         string       `json:"check_out"`
	Adults           int          `json:"adults"`
	Children         int          `json:"children"`
	RoomTypeCode     string       `json:"room_type"`
	RatePlanCode     string       `json:"rate_plan"`
	Guest            bookingGuest `json:"guest"`
}

type reservationResponse struct {
	ID           uint64 `json:"id"`
	PNR          string `json:"pnr"`
	Status       string `json:"status"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	RoomTypeID   uint64 `json:"room_type_id"`
	Adults       int    `json:"adults"`
	Children     int    `json:"children"`
	RatePlanCode string `json:"rate_plan"`
	TotalCents   int64  `json:"total_cents"`
	Currency     string `json:"currency"`
	Channel      string `json:"channel"`
}

func toReservationResponse(res *model.Reservation) reservationResponse {
	return reservationResponse{
		ID:           res.ID,
		PNR:          res.PNR,
		Status:       res.Status,
		CheckIn:      res.CheckIn.Format(model.DateOnly),
		CheckOut:     res.CheckOut.Format(model.DateOnly),
		RoomTypeID:   res.RoomTypeID,
		Adults:       res.Adults,
		Children:     res.Children,
		RatePlanCode: res.RatePlanCode,
		TotalCents:   res.TotalCents,
		Currency:     res.Currency,
		Channel:      res.Channel,
	}
}

// CreateBooking handles POST /v1/bookings.  Domain rejections produce a
// 4xx envelope that is recorded by the guard, so a retried rejection
// replays the same answer instead of re-running the booking.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
	}
	checkIn, err := model.ParseDate(req.CheckIn)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in must be a YYYY-MM-DD date")
	}
	checkOut, err := model.ParseDate(req.CheckOut)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_out must be a YYYY-MM-DD date")
	}

	propertyID := middleware.PropertyID(c)
	channel := middleware.Channel(c)
	key := c.Request().Header.Get("Idempotency-Key")

	resp, err := h.guard.Do(c.Request().Context(), propertyID, key,
		http.MethodPost, c.Path(), func(ctx context.Context) (int, []byte, error) {
			res, err := h.engine.CreateBooking(ctx, propertyID, channel, booking.Request{
				QuoteID:          req.QuoteID,
				PricingSignature: req.PricingSignature,
				CheckIn:          checkIn,
				CheckOut:         checkOut,
				Adults:           req.Adults,
				Children:         req.Children,
				RoomTypeCode:     req.RoomTypeCode,
				RatePlanCode:     req.RatePlanCode,
				Guest: booking.GuestInfo{
					FirstName: req.Guest.FirstName,
					LastName:  req.Guest.LastName,
					Email:     req.Guest.Email,
				},
			})
			if err != nil {
				var domainErr *booking.Error
				if errors.As(err, &domainErr) {
					body, merr := json.Marshal(errorBody{Code: domainErr.Code, Message: domainErr.Message})
					if merr != nil {
						return 0, nil, merr
					}
					return bookingErrorStatus(domainErr.Code), body, nil
				}
				return 0, nil, err
			}
			body, merr := json.Marshal(toReservationResponse(res))
			if merr != nil {
				return 0, nil, merr
			}
			return http.StatusCreated, body, nil
		})
	if err != nil {
		if errors.Is(err, idempotency.ErrConflict) {
			return errJSON(c, http.StatusConflict, "IDEMPOTENCY_CONFLICT",
				"request with this idempotency key is still in flight, retry shortly")
		}
		return err
	}
	if resp.Replayed {
		c.Response().Header().Set("Idempotent-Replay", "true")
	}
	return c.JSONBlob(resp.StatusCode, resp.Body)
}

// GetReservation handles GET /v1/reservations/:pnr.
func (h *BookingHandler) GetReservation(c echo.Context) error {
	res, err := h.reservations.GetByPNR(c.Request().Context(), middleware.PropertyID(c), c.Param("pnr"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errJSON(c, http.StatusNotFound, "RESERVATION_NOT_FOUND", "no reservation with that locator")
		}
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// CancelReservation handles POST /v1/reservations/:id/cancel.
func (h *BookingHandler) CancelReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "reservation id must be a positive integer")
	}

	res, err := h.engine.Cancel(c.Request().Context(), middleware.PropertyID(c), id, middleware.Channel(c))
	if err != nil {
		var domainErr *booking.Error
		if errors.As(err, &domainErr) {
			return errJSON(c, bookingErrorStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return errJSON(c, http.StatusNotFound, "RESERVATION_NOT_FOUND", "no reservation with that id")
		}
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}
