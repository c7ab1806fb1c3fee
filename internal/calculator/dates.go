package calculator

import "time"

// DateOnly returns midnight UTC of t's calendar day. The calendar day is
// read in t's own location, so a date parsed in any zone keeps its day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RelativeDate returns the signed number of calendar days from doi to date:
// positive after the date of interest, negative before, zero on it.
func RelativeDate(date, doi time.Time) int {
	diff := DateOnly(date).Sub(DateOnly(doi))
	return int(diff / (24 * time.Hour))
}
