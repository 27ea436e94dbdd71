package model

import "time"

// Inventory is the per-(property, room type, date) availability record.
// The mutating operations keep the conservation invariant
// available + booked == total after every write; a booking commit must
// never drive available below zero.
//
// Fields:
//  ID         – primary key identifier.
//  PropertyID – owning property.
//  RoomTypeID – room type the row counts rooms for.
//  StayDate   – the calendar night this row covers.
//  Total      – physical sellable rooms for the night.
//  Booked     – rooms currently committed to reservations.
//  Available  – rooms still sellable (total - booked).
//  PriceCents – base nightly price in cents for the night.
//  UpdatedAt  – last mutation timestamp.
type Inventory struct {
	ID         uint64    // inventory.id
	PropertyID uint64    // inventory.property_id
	RoomTypeID uint64    // inventory.room_type_id
	StayDate   time.Time // inventory.stay_date
	Total      int       // inventory.total
	Booked     int       // inventory.booked
	Available  int       // inventory.available
	PriceCents int64     // inventory.price_cents
	UpdatedAt  time.Time // inventory.updated_at
}
