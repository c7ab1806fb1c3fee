package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRelativeDate(t *testing.T) {
	doi := day("2012-12-10")
	tests := []struct {
		date string
		want int
	}{
		{"2012-12-10", 0},
		{"2012-12-11", 1},
		{"2012-12-07", -3},
		{"2013-01-10", 31},
		{"2011-12-10", -366},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeDate(day(tt.date), doi), tt.date)
	}
}

func TestRelativeDate_IgnoresTimeOfDayAndZone(t *testing.T) {
	sydney := time.FixedZone("AEDT", 11*3600)
	newYork := time.FixedZone("EST", -5*3600)

	late := time.Date(2012, 12, 11, 23, 30, 0, 0, newYork)
	early := time.Date(2012, 12, 10, 0, 15, 0, 0, sydney)
	assert.Equal(t, 1, RelativeDate(late, early))

	// Across a DST transition the day count stays whole.
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	before := time.Date(2024, 3, 30, 12, 0, 0, 0, berlin)
	after := time.Date(2024, 4, 1, 0, 30, 0, 0, berlin)
	assert.Equal(t, 2, RelativeDate(after, before))
	assert.Equal(t, -2, RelativeDate(before, after))
}
