package model

import "time"

// Derivation modes for rate plans that price off a parent plan.
const (
	DerivedPercent = "PERCENT" // nightly price = parent * (1 + value/100)
	DerivedFixed   = "FIXED"   // nightly price = parent + value (cents)
)

// Rounding rules applied to a derived nightly price.
const (
	RoundNone    = "NONE"    // keep the exact cent amount
	RoundNearest = "NEAREST" // round to the nearest whole currency unit
	RoundUp      = "UP"      // round up to the next whole currency unit
	RoundDown    = "DOWN"    // round down to the previous whole currency unit
)

// RatePlan is a named pricing policy.  The base plan prices directly off
// the per-night inventory price; a derived plan adjusts its parent's
// nightly price by a percentage or fixed offset and then rounds.
// Occupancy surcharges are applied per night on top of the plan price.
//
// Fields:
//  ID              – primary key identifier.
//  PropertyID      – owning property.
//  Code            – plan code, unique per property (e.g. "BAR", "NR10").
//  Name            – display name.
//  Currency        – ISO 4217 currency code for all amounts on this plan.
//  ParentPlanID    – parent plan when derived; nil for base plans.
//  DerivedType     – PERCENT or FIXED; empty for base plans.
//  DerivedValue    – percent points (PERCENT) or cents (FIXED); may be negative.
//  RoundingRule    – rounding applied after derivation.
//  ExtraAdultCents – nightly surcharge per adult above two.
//  ExtraChildCents – nightly surcharge per child.
//  CreatedAt       – creation timestamp.
type RatePlan struct {
	ID              uint64    // rate_plans.id
	PropertyID      uint64    // rate_plans.property_id
	Code            string    // rate_plans.code
	Name            string    // rate_plans.name
	Currency        string    // rate_plans.currency
	ParentPlanID    *uint64   // rate_plans.parent_plan_id (nullable)
	DerivedType     string    // rate_plans.derived_type
	DerivedValue    int64     // rate_plans.derived_value
	RoundingRule    string    // rate_plans.rounding_rule
	ExtraAdultCents int64     // rate_plans.extra_adult_cents
	ExtraChildCents int64     // rate_plans.extra_child_cents
	CreatedAt       time.Time // rate_plans.created_at
}

// IsDerived reports whether the plan prices off a parent plan.
func (p *RatePlan) IsDerived() bool { return p.ParentPlanID != nil && p.DerivedType != "" }

// NightlyPrice computes the plan's price for one night from the stored
// base price, applying derivation, rounding and occupancy surcharges.
func (p *RatePlan) NightlyPrice(baseCents int64, adults, children int) int64 {
	price := baseCents
	if p.IsDerived() {
		switch p.DerivedType {
		case DerivedPercent:
			price = baseCents + baseCents*p.DerivedValue/100
		case DerivedFixed:
			price = baseCents + p.DerivedValue
		}
		price = applyRounding(price, p.RoundingRule)
	}
	if adults > 2 {
		price += int64(adults-2) * p.ExtraAdultCents
	}
	price += int64(children) * p.ExtraChildCents
	if price < 0 {
		price = 0
	}
	return price
}

// applyRounding rounds a cent amount to a whole currency unit per rule.
func applyRounding(cents int64, rule string) int64 {
	rem := cents % 100
	if rem < 0 {
		rem += 100
	}
	switch rule {
	case RoundNearest:
		if rem >= 50 {
			return cents + (100 - rem)
		}
		return cents - rem
	case RoundUp:
		if rem == 0 {
			return cents
		}
		return cents + (100 - rem)
	case RoundDown:
		return cents - rem
	default:
		return cents
	}
}
