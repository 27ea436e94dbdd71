package model

import "time"

// Quote is a short-lived, signed price offer for a specific stay.  It is
// never persisted; quotes live only in the in-process quote cache and are
// redeemed into bookings while the pricing signature is still valid.
type Quote struct {
	QuoteID          string         `json:"quote_id"`
	PricingSignature string         `json:"pricing_signature"`
	RoomTypeCode     string         `json:"room_type_code"`
	RoomTypeName     string         `json:"room_type_name"`
	RatePlanCode     string         `json:"rate_plan_code"`
	Currency         string         `json:"currency"`
	TotalCents       int64          `json:"total_cents"`
	Nights           []NightlyPrice `json:"nights"`
	CancellationTerm string         `json:"cancellation_term"`
	ValidUntil       time.Time      `json:"valid_until"`
}

// NightlyPrice is one night of a quote's price breakdown.
type NightlyPrice struct {
	Date       string `json:"date"`
	PriceCents int64  `json:"price_cents"`
}
