// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a reservation is successfully
// committed.  It carries enough for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	PropertyID    uint64 `json:"property_id"`
	PNR           string `json:"pnr"`
	RoomTypeCode  string `json:"room_type_code"`
	RatePlanCode  string `json:"rate_plan_code"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
	Channel       string `json:"channel"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// AriAppliedEvent is published after an ARI event or bulk update is
// applied, so channel managers can confirm propagation.
type AriAppliedEvent struct {
	PropertyID   uint64 `json:"property_id"`
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	RoomTypeCode string `json:"room_type_code,omitempty"`
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
	AppliedAt    string `json:"applied_at"`
}

// Queue names.  Both are declared durable on first use.
const (
	BookingConfirmedQueue = "booking.confirmed"
	AriAppliedQueue       = "ari.applied"
)
