package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNightlyPriceBasePlan(t *testing.T) {
	plan := RatePlan{Code: "BAR", RoundingRule: RoundNone}
	assert.Equal(t, int64(10000), plan.NightlyPrice(10000, 2, 0))
}

func TestNightlyPriceDerivedPercent(t *testing.T) {
	parent := uint64(1)
	plan := RatePlan{
		Code:         "NR10",
		ParentPlanID: &parent,
		DerivedType:  DerivedPercent,
		DerivedValue: -10,
		RoundingRule: RoundNearest,
	}
	// 10050 - 10% = 9045, rounded to the nearest unit -> 9000
	assert.Equal(t, int64(9000), plan.NightlyPrice(10050, 2, 0))
}

func TestNightlyPriceDerivedFixed(t *testing.T) {
	parent := uint64(1)
	plan := RatePlan{
		Code:         "BB",
		ParentPlanID: &parent,
		DerivedType:  DerivedFixed,
		DerivedValue: 1500,
		RoundingRule: RoundNone,
	}
	assert.Equal(t, int64(11500), plan.NightlyPrice(10000, 2, 0))
}

func TestNightlyPriceRounding(t *testing.T) {
	parent := uint64(1)
	base := RatePlan{ParentPlanID: &parent, DerivedType: DerivedFixed, DerivedValue: 0}

	up := base
	up.RoundingRule = RoundUp
	assert.Equal(t, int64(10100), up.NightlyPrice(10001, 2, 0))

	down := base
	down.RoundingRule = RoundDown
	assert.Equal(t, int64(10000), down.NightlyPrice(10099, 2, 0))

	nearest := base
	nearest.RoundingRule = RoundNearest
	assert.Equal(t, int64(10100), nearest.NightlyPrice(10050, 2, 0))
	assert.Equal(t, int64(10000), nearest.NightlyPrice(10049, 2, 0))
}

func TestNightlyPriceOccupancySurcharges(t *testing.T) {
	plan := RatePlan{
		Code:            "BAR",
		RoundingRule:    RoundNone,
		ExtraAdultCents: 2000,
		ExtraChildCents: 1000,
	}
	// third adult and two children on top of the base price
	assert.Equal(t, int64(10000+2000+2*1000), plan.NightlyPrice(10000, 3, 2))
	// two adults incur no adult surcharge
	assert.Equal(t, int64(10000), plan.NightlyPrice(10000, 2, 0))
}

func TestNightlyPriceNeverNegative(t *testing.T) {
	parent := uint64(1)
	plan := RatePlan{
		ParentPlanID: &parent,
		DerivedType:  DerivedFixed,
		DerivedValue: -20000,
		RoundingRule: RoundNone,
	}
	assert.Equal(t, int64(0), plan.NightlyPrice(10000, 2, 0))
}
