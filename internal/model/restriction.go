package model

import "time"

// Restriction is the per-(property, room type, date, rate plan) stay
// restriction row.  Nil pointer fields mean "no restriction"; a false
// boolean means the restriction is present but inactive.
//
// Fields:
//  ID                – primary key identifier.
//  PropertyID        – owning property.
//  RoomTypeID        – room type the restriction applies to.
//  StayDate          – the calendar night the restriction covers.
//  RatePlanCode      – rate plan scope ("" applies to all plans).
//  MinLOS            – minimum length of stay in nights.
//  MaxLOS            – maximum length of stay in nights.
//  ClosedToArrival   – stays may not start on this date.
//  ClosedToDeparture – stays may not end on this date.
//  Closed            – the date cannot be part of any stay.
//  UpdatedAt         – last mutation timestamp.
type Restriction struct {
	ID                uint64    // restrictions.id
	PropertyID        uint64    // restrictions.property_id
	RoomTypeID        uint64    // restrictions.room_type_id
	StayDate          time.Time // restrictions.stay_date
	RatePlanCode      string    // restrictions.rate_plan_code
	MinLOS            *int      // restrictions.min_los (nullable)
	MaxLOS            *int      // restrictions.max_los (nullable)
	ClosedToArrival   *bool     // restrictions.closed_to_arrival (nullable)
	ClosedToDeparture *bool     // restrictions.closed_to_departure (nullable)
	Closed            *bool     // restrictions.closed (nullable)
	UpdatedAt         time.Time // restrictions.updated_at
}

// RestrictionPatch carries a partial restriction update.  Fields left
// unset are not touched on update; on first create, unset boolean fields
// default to false and unset LOS fields stay null.
type RestrictionPatch struct {
	MinLOS            Patch[int]
	MaxLOS            Patch[int]
	ClosedToArrival   Patch[bool]
	ClosedToDeparture Patch[bool]
	Closed            Patch[bool]
}

// IsEmpty reports whether the patch touches no field.
func (p RestrictionPatch) IsEmpty() bool {
	return !p.MinLOS.IsSet() && !p.MaxLOS.IsSet() &&
		!p.ClosedToArrival.IsSet() && !p.ClosedToDeparture.IsSet() && !p.Closed.IsSet()
}
