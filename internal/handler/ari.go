package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lodgecore/pms/internal/ari"
	"github.com/lodgecore/pms/internal/middleware"
	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/repository"
)

// AriHandler exposes ARI event ingestion, bulk updates and bulk undo.
type AriHandler struct {
	processor *ari.Processor
	bulk      *ari.BulkUpdater
}

// NewAriHandler constructs an ARI handler.
func NewAriHandler(processor *ari.Processor, bulk *ari.BulkUpdater) *AriHandler {
	return &AriHandler{processor: processor, bulk: bulk}
}

type dateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type restrictionFields struct {
	MinLOS            *int  `json:"min_los"`
	MaxLOS            *int  `json:"max_los"`
	ClosedToArrival   *bool `json:"closed_to_arrival"`
	ClosedToDeparture *bool `json:"closed_to_departure"`
	Closed            *bool `json:"closed"`
}

func (f restrictionFields) patch() model.RestrictionPatch {
	return model.RestrictionPatch{
		MinLOS:            model.SetPtr(f.MinLOS),
		MaxLOS:            model.SetPtr(f.MaxLOS),
		ClosedToArrival:   model.SetPtr(f.ClosedToArrival),
		ClosedToDeparture: model.SetPtr(f.ClosedToDeparture),
		Closed:            model.SetPtr(f.Closed),
	}
}

type ariEventRequest struct {
	EventID        string            `json:"event_id"`
	EventType      string            `json:"event_type"`
	UpdateType     string            `json:"update_type"`
	RoomTypeCode   string            `json:"room_type"`
	RatePlanCode   string            `json:"rate_plan"`
	DateRange      dateRange         `json:"date_range"`
	Available      *int              `json:"available"`
	Delta          *int              `json:"delta"`
	BaseRateCents  *int64            `json:"base_rate_cents"`
	DailyRateCents map[string]int64  `json:"daily_rate_cents"`
	Restrictions   restrictionFields `json:"restrictions"`
	OccurredAt     string            `json:"occurred_at"`
}

// IngestEvent handles POST /v1/ari/events.  The raw body is preserved as
// the stored event payload.  Terminal outcomes map to HTTP statuses:
// APPLIED 200, DEDUPED 409, ERROR 422.
func (h *AriHandler) IngestEvent(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "could not read request body")
	}
	var req ariEventRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
	}
	from, err := model.ParseDate(req.DateRange.From)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "date_range.from must be a YYYY-MM-DD date")
	}
	to, err := model.ParseDate(req.DateRange.To)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "date_range.to must be a YYYY-MM-DD date")
	}
	var occurredAt time.Time
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "occurred_at must be an RFC 3339 timestamp")
		}
	}

	result, err := h.processor.ProcessEvent(c.Request().Context(), middleware.PropertyID(c), ari.Event{
		EventID:        req.EventID,
		EventType:      req.EventType,
		UpdateType:     req.UpdateType,
		RoomTypeCode:   req.RoomTypeCode,
		RatePlanCode:   req.RatePlanCode,
		DateFrom:       from,
		DateTo:         to,
		Channel:        middleware.Channel(c),
		Available:      req.Available,
		Delta:          req.Delta,
		BaseRateCents:  req.BaseRateCents,
		DailyRateCents: req.DailyRateCents,
		Restrictions:   req.Restrictions.patch(),
		OccurredAt:     occurredAt,
		Payload:        raw,
	})
	if err != nil {
		return err
	}
	switch result.Status {
	case model.AriStatusDeduped:
		return c.JSON(http.StatusConflict, result)
	case model.AriStatusError:
		return c.JSON(http.StatusUnprocessableEntity, result)
	default:
		return c.JSON(http.StatusOK, result)
	}
}

type bulkUpdateRequest struct {
	DateRange    dateRange `json:"date_range"`
	RoomTypeIDs  []uint64  `json:"room_type_ids"`
	RatePlanCode string    `json:"rate_plan"`
	DaysOfWeek   []int     `json:"days_of_week"`
	PriceCents   *int64    `json:"price_cents"`
	Available    *int      `json:"available"`
	restrictionFields
}

// BulkUpdate handles POST /v1/ari/bulk.
func (h *AriHandler) BulkUpdate(c echo.Context) error {
	var req bulkUpdateRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
	}
	from, err := model.ParseDate(req.DateRange.From)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "date_range.from must be a YYYY-MM-DD date")
	}
	to, err := model.ParseDate(req.DateRange.To)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "date_range.to must be a YYYY-MM-DD date")
	}
	for _, d := range req.DaysOfWeek {
		if d < 0 || d > 6 {
			return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "days_of_week entries must be 0 (Sunday) through 6")
		}
	}

	result, err := h.bulk.UpdateBulk(c.Request().Context(), middleware.PropertyID(c), ari.BulkParams{
		FromDate:     from,
		ToDate:       to,
		RoomTypeIDs:  req.RoomTypeIDs,
		RatePlanCode: req.RatePlanCode,
		DaysOfWeek:   req.DaysOfWeek,
		Actor:        middleware.Channel(c),
		Fields: ari.BulkFields{
			PriceCents:        model.SetPtr(req.PriceCents),
			Available:         model.SetPtr(req.Available),
			MinLOS:            model.SetPtr(req.MinLOS),
			MaxLOS:            model.SetPtr(req.MaxLOS),
			ClosedToArrival:   model.SetPtr(req.ClosedToArrival),
			ClosedToDeparture: model.SetPtr(req.ClosedToDeparture),
			Closed:            model.SetPtr(req.Closed),
		},
	})
	if err != nil {
		return h.mapBulkError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// UndoBulk handles POST /v1/ari/bulk/:eventId/undo.
func (h *AriHandler) UndoBulk(c echo.Context) error {
	eventID := c.Param("eventId")
	if eventID == "" {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "event id is required")
	}
	result, err := h.bulk.UndoBulk(c.Request().Context(), middleware.PropertyID(c), eventID, middleware.Channel(c))
	if err != nil {
		return h.mapBulkError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AriHandler) mapBulkError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ari.ErrInvalidRange), errors.Is(err, ari.ErrRangeTooLarge),
		errors.Is(err, ari.ErrNoFields), errors.Is(err, ari.ErrNoRoomTypes):
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ari.ErrRoomTypeNotFound):
		return errJSON(c, http.StatusNotFound, "ROOM_TYPE_NOT_FOUND", err.Error())
	case errors.Is(err, ari.ErrAlreadyUndone), errors.Is(err, ari.ErrNotUndoable):
		return errJSON(c, http.StatusConflict, "UNDO_REJECTED", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return errJSON(c, http.StatusNotFound, "EVENT_NOT_FOUND", "no event with that id")
	default:
		return err
	}
}
