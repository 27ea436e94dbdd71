package model

import "time"

// Property is the tenant root.  Every other entity in the system is owned
// by exactly one property and every query is scoped by PropertyID; data is
// structurally unreachable across tenants.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – short unique property code (e.g. "GRAND01").
//  Name      – display name.
//  Timezone  – IANA timezone name used to interpret stay dates.
//  CreatedAt – creation timestamp.
type Property struct {
	ID        uint64    // properties.id
	Code      string    // properties.code
	Name      string    // properties.name
	Timezone  string    // properties.timezone
	CreatedAt time.Time // properties.created_at
}
