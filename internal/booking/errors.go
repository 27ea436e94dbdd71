// Package booking converts a priced quote into a confirmed reservation,
// enforcing stay restrictions and decrementing inventory inside a single
// transaction.
package booking

import "fmt"

// Stable machine-readable rejection codes.  NO_AVAILABILITY is distinct
// from the restriction codes so clients can tell "re-quote" from "pick
// different dates".
const (
	CodeClosed            = "CLOSED"
	CodeClosedToArrival   = "CLOSED_TO_ARRIVAL"
	CodeClosedToDeparture = "CLOSED_TO_DEPARTURE"
	CodeMinLOS            = "MIN_LOS"
	CodeMaxLOS            = "MAX_LOS"
	CodeNoAvailability    = "NO_AVAILABILITY"
	CodeQuoteInvalid      = "QUOTE_INVALID"
	CodeRoomTypeNotFound  = "ROOM_TYPE_NOT_FOUND"
	CodeAlreadyCancelled  = "ALREADY_CANCELLED"
	CodeCannotCancel      = "CANNOT_CANCEL"
	CodeValidation        = "VALIDATION_ERROR"
)

// Error is a typed domain rejection.  Handlers translate it to a 4xx
// response carrying the code and the human-readable message; it is never
// collapsed into a generic 500.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func reject(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
