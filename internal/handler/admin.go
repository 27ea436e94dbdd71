package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lodgecore/pms/internal/middleware"
	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/repository"
)

// AdminHandler manages the property profile and the room type and rate
// plan catalog.  Catalog changes are rare compared to ARI traffic, so
// these endpoints talk to the repositories directly.
type AdminHandler struct {
	properties *repository.PropertyRepo
	roomTypes  *repository.RoomTypeRepo
	ratePlans  *repository.RatePlanRepo
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(properties *repository.PropertyRepo, roomTypes *repository.RoomTypeRepo, ratePlans *repository.RatePlanRepo) *AdminHandler {
	return &AdminHandler{properties: properties, roomTypes: roomTypes, ratePlans: ratePlans}
}

type propertyResponse struct {
	ID       uint64 `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// GetProperty handles GET /v1/property.  It returns the tenant's own
// property profile, so integrators can verify which property their
// X-Property-ID resolves to.
func (h *AdminHandler) GetProperty(c echo.Context) error {
	p, err := h.properties.GetByID(c.Request().Context(), middleware.PropertyID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errJSON(c, http.StatusNotFound, "PROPERTY_NOT_FOUND", "no property with that id")
		}
		return err
	}
	return c.JSON(http.StatusOK, propertyResponse{
		ID:       p.ID,
		Code:     p.Code,
		Name:     p.Name,
		Timezone: p.Timezone,
	})
}

type roomTypeRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	MaxAdults   int    `json:"max_adults"`
	MaxChildren int    `json:"max_children"`
}

type roomTypeResponse struct {
	ID          uint64 `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	MaxAdults   int    `json:"max_adults"`
	MaxChildren int    `json:"max_children"`
}

func toRoomTypeResponse(rt *model.RoomType) roomTypeResponse {
	return roomTypeResponse{
		ID:          rt.ID,
		Code:        rt.Code,
		Name:        rt.Name,
		MaxAdults:   rt.MaxAdults,
		MaxChildren: rt.MaxChildren,
	}
}

// CreateRoomType handles POST /v1/room-types.
func (h *AdminHandler) CreateRoomType(c echo.Context) error {
	var req roomTypeRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
	}
	if req.Code == "" || req.Name == "" {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "code and name are required")
	}
	if req.MaxAdults < 1 {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "max_adults must be at least 1")
	}

	rt := &model.RoomType{
		PropertyID:  middleware.PropertyID(c),
		Code:        req.Code,
		Name:        req.Name,
		MaxAdults:   req.MaxAdults,
		MaxChildren: req.MaxChildren,
	}
	if err := h.roomTypes.Create(c.Request().Context(), rt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return errJSON(c, http.StatusConflict, "DUPLICATE_CODE", "room type code already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, toRoomTypeResponse(rt))
}

// ListRoomTypes handles GET /v1/room-types.
func (h *AdminHandler) ListRoomTypes(c echo.Context) error {
	rts, err := h.roomTypes.ListByProperty(c.Request().Context(), middleware.PropertyID(c))
	if err != nil {
		return err
	}
	out := make([]roomTypeResponse, 0, len(rts))
	for i := range rts {
		out = append(out, toRoomTypeResponse(&rts[i]))
	}
	return c.JSON(http.StatusOK, out)
}

type ratePlanRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Currency        string `json:"currency"`
	ParentPlanCode  string `json:"parent_plan,omitempty"`
	DerivedType     string `json:"derived_type,omitempty"`
	DerivedValue    int64  `json:"derived_value,omitempty"`
	RoundingRule    string `json:"rounding_rule,omitempty"`
	ExtraAdultCents int64  `json:"extra_adult_cents,omitempty"`
	ExtraChildCents int64  `json:"extra_child_cents,omitempty"`
}

type ratePlanResponse struct {
	ID              uint64 `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Currency        string `json:"currency"`
	DerivedType     string `json:"derived_type,omitempty"`
	DerivedValue    int64  `json:"derived_value,omitempty"`
	RoundingRule    string `json:"rounding_rule"`
	ExtraAdultCents int64  `json:"extra_adult_cents"`
	ExtraChildCents int64  `json:"extra_child_cents"`
}

func toRatePlanResponse(p *model.RatePlan) ratePlanResponse {
	return ratePlanResponse{
		ID:              p.ID,
		Code:            p.Code,
		Name:            p.Name,
		Currency:        p.Currency,
		DerivedType:     p.DerivedType,
		DerivedValue:    p.DerivedValue,
		RoundingRule:    p.RoundingRule,
		ExtraAdultCents: p.ExtraAdultCents,
		ExtraChildCents: p.ExtraChildCents,
	}
}

// CreateRatePlan handles POST /v1/rate-plans.  A derived plan references
// its parent by code and must name a derivation type.
func (h *AdminHandler) CreateRatePlan(c echo.Context) error {
	var req ratePlanRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
	}
	if req.Code == "" || req.Name == "" || req.Currency == "" {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "code, name and currency are required")
	}
	if req.DerivedType != "" && req.DerivedType != model.DerivedPercent && req.DerivedType != model.DerivedFixed {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "derived_type must be PERCENT or FIXED")
	}
	if (req.ParentPlanCode == "") != (req.DerivedType == "") {
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "parent_plan and derived_type go together")
	}
	switch req.RoundingRule {
	case "", model.RoundNone, model.RoundNearest, model.RoundUp, model.RoundDown:
	default:
		return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown rounding_rule")
	}

	propertyID := middleware.PropertyID(c)
	plan := &model.RatePlan{
		PropertyID:      propertyID,
		Code:            req.Code,
		Name:            req.Name,
		Currency:        req.Currency,
		DerivedType:     req.DerivedType,
		DerivedValue:    req.DerivedValue,
		RoundingRule:    req.RoundingRule,
		ExtraAdultCents: req.ExtraAdultCents,
		ExtraChildCents: req.ExtraChildCents,
	}
	if plan.RoundingRule == "" {
		plan.RoundingRule = model.RoundNone
	}
	if req.ParentPlanCode != "" {
		parent, err := h.ratePlans.GetByCode(c.Request().Context(), propertyID, req.ParentPlanCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "parent_plan not found")
			}
			return err
		}
		plan.ParentPlanID = &parent.ID
	}

	if err := h.ratePlans.Create(c.Request().Context(), plan); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return errJSON(c, http.StatusConflict, "DUPLICATE_CODE", "rate plan code already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, toRatePlanResponse(plan))
}

// ListRatePlans handles GET /v1/rate-plans.
func (h *AdminHandler) ListRatePlans(c echo.Context) error {
	plans, err := h.ratePlans.ListByProperty(c.Request().Context(), middleware.PropertyID(c))
	if err != nil {
		return err
	}
	out := make([]ratePlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, toRatePlanResponse(&plans[i]))
	}
	return c.JSON(http.StatusOK, out)
}
