package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lodgecore/pms/internal/middleware"
	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/quote"
)

// QuoteHandler exposes the quote engine over HTTP.
type QuoteHandler struct {
	engine *quote.Engine
}

// NewQuoteHandler constructs a quote handler.
func NewQuoteHandler(engine *quote.Engine) *QuoteHandler {
	return &QuoteHandler{engine: engine}
}

type quoteRequest struct {
	CheckIn       string   `json:"check_in"`
	CheckOut      string   `json:"check_out"`
	Adults        int      `json:"adults"`
	Children      int      `json:"children"`
	RoomTypeCodes []string `json:"room_types,omitempty"`
	RatePlanCode  string   `json:"rate_plan,omitempty"`
}

type quoteResponse struct {
	Quotes []model.Quote `json:"quotes"`
	Cached bool          `json:"cached"`
}

// GenerateQuotes handles POST /v1/quotes.  No availability is not an
// error: the response carries an empty quote list.
func (h *QuoteHandler) GenerateQuotes(c echo.Context) error {
	var req quoteRequest
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

	result, err := h.engine.GenerateQuotes(c.Request().Context(), quote.Request{
		PropertyID:    middleware.PropertyID(c),
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Adults:        req.Adults,
		Children:      req.Children,
		RoomTypeCodes: req.RoomTypeCodes,
		RatePlanCode:  req.RatePlanCode,
	})
	if err != nil {
		if errors.Is(err, quote.ErrInvalidStay) || errors.Is(err, quote.ErrInvalidOccupancy) {
			return errJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, quoteResponse{Quotes: result.Quotes, Cached: result.Cached})
}
