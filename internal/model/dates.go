package model

import "time"

// DateOnly is the wire and storage format for stay dates.  All stay dates
// are calendar dates in the property's local calendar; the time-of-day
// portion is always midnight UTC.
const DateOnly = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a midnight-UTC time.Time.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateOnly, s)
}

// Nights returns the number of nights between check-in and check-out.
// A stay of 2026-06-01 to 2026-06-03 is two nights.
func Nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

// NightsOf returns every night of a stay, i.e. each date in
// [checkIn, checkOut) in ascending order.
func NightsOf(checkIn, checkOut time.Time) []time.Time {
	n := Nights(checkIn, checkOut)
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// DatesInRange returns every date in the inclusive range [from, to].
func DatesInRange(from, to time.Time) []time.Time {
	if to.Before(from) {
		return nil
	}
	out := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
