package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lodgecore/pms/internal/middleware"
	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/repository"
)

// AvailabilityHandler serves the read-only availability calendar used by
// front-desk screens and channel manager reconciliation.
type AvailabilityHandler struct {
	roomTypes *repository.RoomTypeRepo
	inventory *repository.InventoryRepo
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(roomTypes *repository.RoomTypeRepo, inventory *repository.InventoryRepo) *AvailabilityHandler {
	return &AvailabilityHandler{roomTypes: roomTypes, inventory: inventory}
}

type availabilityDay struct {
	Date       string `json:"date"`
	Total      int    `json:"total"`
	Booked     int    `json:"booked"`
	Available  int    `json:"available"`
	PriceCents int64  `json:"price_cents"`
}

type availabilityRow struct {
	RoomTypeCode string            `json:"room_type"`
	RoomTypeName string            `json:"room_type_name"`
	Days         []availabilityDay `json:"days"`
}

// Calendar handles GET /v1/availability?from=&to=&room_type=.  Dates
// without an inventory row are simply absent; the calendar reports what
// is known, not a dense grid.
func (h *AvailabilityHandler) Calendar(c echo.Context) error {
	from, err := model.ParseDate(c.QueryParam("from"))
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "from must be a YYYY-MM-DD date")
	}
	to, err := model.ParseDate(c.QueryParam("to"))
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must be a YYYY-MM-DD date")
	}
	if to.Before(from) {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must not precede from")
	}
	if len(model.DatesInRange(from, to)) > 180 {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "date range exceeds 180 days")
	}
	filterCode := c.QueryParam("room_type")

	propertyID := middleware.PropertyID(c)
	roomTypes, err := h.roomTypes.ListByProperty(c.Request().Context(), propertyID)
	if err != nil {
		return err
	}
	inv, err := h.inventory.ListRange(c.Request().Context(), propertyID, from, to)
	if err != nil {
		return err
	}

	byRoomType := make(map[uint64][]availabilityDay)
	for _, row := range inv {
		byRoomType[row.RoomTypeID] = append(byRoomType[row.RoomTypeID], availabilityDay{
			Date:       row.StayDate.Format(model.DateOnly),
			Total:      row.Total,
			Booked:     row.Booked,
			Available:  row.Available,
			PriceCents: row.PriceCents,
		})
	}

	out := make([]availabilityRow, 0, len(roomTypes))
	for _, rt := range roomTypes {
		if filterCode != "" && rt.Code != filterCode {
			continue
		}
		days := byRoomType[rt.ID]
		if days == nil {
			days = []availabilityDay{}
		}
		out = append(out, availabilityRow{RoomTypeCode: rt.Code, RoomTypeName: rt.Name, Days: days})
	}
	if filterCode != "" && len(out) == 0 {
		return errJSON(c, http.StatusNotFound, "ROOM_TYPE_NOT_FOUND", "room type not found")
	}
	return c.JSON(http.StatusOK, out)
}
