package model

import "time"

// RoomType is a bookable category of rooms within a property, such as a
// standard double or a junior suite.  Inventory and restrictions hang off
// the room type, not off physical rooms.
//
// Fields:
//  ID          – primary key identifier.
//  PropertyID  – owning property.
//  Code        – room type code, unique per property (e.g. "DBL").
//  Name        – display name.
//  MaxAdults   – maximum number of adults per room.
//  MaxChildren – maximum number of children per room.
//  CreatedAt   – creation timestamp.
type RoomType struct {
	ID          uint64    // room_types.id
	PropertyID  uint64    // room_types.property_id
	Code        string    // room_types.code
	Name        string    // room_types.name
	MaxAdults   int       // room_types.max_adults
	MaxChildren int       // room_types.max_children
	CreatedAt   time.Time // room_types.created_at
}

// Fits reports whether the room type can host the requested occupancy.
func (rt *RoomType) Fits(adults, children int) bool {
	return adults <= rt.MaxAdults && children <= rt.MaxChildren
}
