package model

import "time"

// Reservation statuses.  Transitions move forward only; CANCELLED is
// reachable from any non-terminal status and there is no un-cancel.
const (
	ReservationPending    = "PENDING"
	ReservationConfirmed  = "CONFIRMED"
	ReservationCheckedIn  = "CHECKED_IN"
	ReservationCheckedOut = "CHECKED_OUT"
	ReservationCancelled  = "CANCELLED"
)

// Reservation is the booking record created atomically by the booking
// engine together with the inventory decrement for every night of the
// stay.
//
// Fields:
//  ID           – primary key identifier.
//  PropertyID   – owning property.
//  PNR          – human-readable booking locator, unique per property.
//  Status       – current lifecycle status.
//  CheckIn      – arrival date.
//  CheckOut     – departure date (exclusive night bound).
//  RoomTypeID   – booked room type.
//  RoomID       – physical room assignment, when made.
//  GuestID      – primary guest profile.
//  Adults       – adult count.
//  Children     – child count.
//  RatePlanCode – rate plan the stay was priced on.
//  TotalCents   – total stay price in cents.
//  Currency     – ISO 4217 currency of the total.
//  Channel      – distribution channel that produced the booking.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Reservation struct {
	ID           uint64    // reservations.id
	PropertyID   uint64    // reservations.property_id
	PNR          string    // reservations.pnr
	Status       string    // reservations.status
	CheckIn      time.Time // reservations.check_in
	CheckOut     time.Time // reservations.check_out
	RoomTypeID   uint64    // reservations.room_type_id
	RoomID       *uint64   // reservations.room_id (nullable)
	GuestID      uint64    // reservations.guest_id
	Adults       int       // reservations.adults
	Children     int       // reservations.children
	RatePlanCode string    // reservations.rate_plan_code
	TotalCents   int64     // reservations.total_cents
	Currency     string    // reservations.currency
	Channel      string    // reservations.channel
	CreatedAt    time.Time // reservations.created_at
	UpdatedAt    time.Time // reservations.updated_at
}

// Guest is a minimal guest profile.  Resolution is find-by-email-or-create
// within the booking transaction; full profile CRUD lives outside this
// service.
type Guest struct {
	ID         uint64    // guests.id
	PropertyID uint64    // guests.property_id
	FirstName  string    // guests.first_name
	LastName   string    // guests.last_name
	Email      string    // guests.email
	CreatedAt  time.Time // guests.created_at
}
