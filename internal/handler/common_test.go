package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lodgecore/pms/internal/booking"
)

func TestBookingErrorStatus(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{booking.CodeValidation, http.StatusBadRequest},
		{booking.CodeClosed, http.StatusBadRequest},
		{booking.CodeClosedToArrival, http.StatusBadRequest},
		{booking.CodeClosedToDeparture, http.StatusBadRequest},
		{booking.CodeMinLOS, http.StatusBadRequest},
		{booking.CodeMaxLOS, http.StatusBadRequest},
		{booking.CodeNoAvailability, http.StatusBadRequest},
		{booking.CodeRoomTypeNotFound, http.StatusNotFound},
		{booking.CodeAlreadyCancelled, http.StatusConflict},
		{booking.CodeCannotCancel, http.StatusConflict},
		{booking.CodeQuoteInvalid, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, bookingErrorStatus(tc.code), "code %s", tc.code)
	}
}
