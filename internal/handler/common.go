// Package handler contains the HTTP handlers.  Handlers bind and
// validate the transport payload, resolve the tenant from the request
// context and delegate to the engines; domain rejections are translated
// to a {code, message} envelope with a stable machine-readable code.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lodgecore/pms/internal/booking"
)

// errorBody is the uniform error envelope returned by every endpoint.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, errorBody{Code: code, Message: message})
}

// bookingErrorStatus maps a domain rejection code to its HTTP status.
// Restriction violations and NO_AVAILABILITY are 400 domain rejections;
// lifecycle conflicts are 409 so clients know the state moved underneath
// them.
func bookingErrorStatus(code string) int {
	switch code {
	case booking.CodeValidation,
		booking.CodeClosed, booking.CodeClosedToArrival, booking.CodeClosedToDeparture,
		booking.CodeMinLOS, booking.CodeMaxLOS,
		booking.CodeNoAvailability:
		return http.StatusBadRequest
	case booking.CodeRoomTypeNotFound:
		return http.StatusNotFound
	case booking.CodeAlreadyCancelled, booking.CodeCannotCancel:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
