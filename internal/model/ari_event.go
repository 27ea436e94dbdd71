package model

import "time"

// ARI event types.
const (
	AriAvailability = "AVAILABILITY"
	AriRate         = "RATE"
	AriRestriction  = "RESTRICTION"
	AriBulkUpdate   = "BULK_UPDATE"
)

// Availability update modes.  SET replaces the sellable count;
// INCREMENT/DECREMENT move available and total together, modelling a
// change in physical room count rather than a sell or release.
const (
	UpdateSet       = "SET"
	UpdateIncrement = "INCREMENT"
	UpdateDecrement = "DECREMENT"
)

// Terminal ARI event statuses.
const (
	AriStatusApplied = "APPLIED"
	AriStatusDeduped = "DEDUPED"
	AriStatusError   = "ERROR"
)

// AriEvent is the append-only audit and dedup record of an inbound ARI
// update.  EventID is the dedup key: replays from unreliable channel
// delivery must not double-apply.  A row is never mutated after reaching
// a terminal status except by an explicit bulk undo.
//
// Fields:
//  ID           – primary key identifier.
//  PropertyID   – owning property.
//  EventID      – channel-supplied dedup key, globally unique.
//  EventType    – AVAILABILITY, RATE, RESTRICTION or BULK_UPDATE.
//  UpdateType   – SET/INCREMENT/DECREMENT for availability events.
//  RoomTypeCode – referenced room type code.
//  RatePlanCode – referenced rate plan code, if any.
//  DateFrom     – first date of the affected range (inclusive).
//  DateTo       – last date of the affected range (inclusive).
//  Payload      – raw event payload, JSON.
//  Status       – terminal processing status.
//  Message      – human-readable processing note or error.
//  Undone       – set when a bulk event has been reverted.
//  OccurredAt   – channel-side event timestamp.
//  CreatedAt    – ingestion timestamp.
type AriEvent struct {
	ID           uint64    // ari_events.id
	PropertyID   uint64    // ari_events.property_id
	EventID      string    // ari_events.event_id
	EventType    string    // ari_events.event_type
	UpdateType   string    // ari_events.update_type
	RoomTypeCode string    // ari_events.room_type_code
	RatePlanCode string    // ari_events.rate_plan_code
	DateFrom     time.Time // ari_events.date_from
	DateTo       time.Time // ari_events.date_to
	Payload      []byte    // ari_events.payload (JSON)
	Status       string    // ari_events.status
	Message      string    // ari_events.message
	Undone       bool      // ari_events.undone
	OccurredAt   time.Time // ari_events.occurred_at
	CreatedAt    time.Time // ari_events.created_at
}
