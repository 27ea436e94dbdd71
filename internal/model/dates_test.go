package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestNights(t *testing.T) {
	assert.Equal(t, 2, Nights(date(t, "2026-06-01"), date(t, "2026-06-03")))
	assert.Equal(t, 1, Nights(date(t, "2026-06-01"), date(t, "2026-06-02")))
	assert.Equal(t, 0, Nights(date(t, "2026-06-01"), date(t, "2026-06-01")))
}

func TestNightsOfExcludesCheckOut(t *testing.T) {
	nights := NightsOf(date(t, "2026-06-01"), date(t, "2026-06-03"))
	require.Len(t, nights, 2)
	assert.Equal(t, "2026-06-01", nights[0].Format(DateOnly))
	assert.Equal(t, "2026-06-02", nights[1].Format(DateOnly))

	assert.Nil(t, NightsOf(date(t, "2026-06-03"), date(t, "2026-06-01")))
}

func TestDatesInRangeInclusive(t *testing.T) {
	dates := DatesInRange(date(t, "2026-06-01"), date(t, "2026-06-03"))
	require.Len(t, dates, 3)
	assert.Equal(t, "2026-06-03", dates[2].Format(DateOnly))

	single := DatesInRange(date(t, "2026-06-01"), date(t, "2026-06-01"))
	assert.Len(t, single, 1)

	assert.Nil(t, DatesInRange(date(t, "2026-06-02"), date(t, "2026-06-01")))
}
