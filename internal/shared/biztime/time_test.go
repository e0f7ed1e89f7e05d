package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSameMonth(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			"same month",
			time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC),
			true,
		},
		{
			"adjacent months an hour apart",
			time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"same month different years",
			time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameMonth(tt.a, tt.b))
		})
	}
}

func TestStartOfWeekUTC(t *testing.T) {
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	// Wednesday mid-week maps back to Monday.
	assert.Equal(t, monday, StartOfWeekUTC(time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)))

	// Sunday belongs to the preceding Monday-based week.
	assert.Equal(t, monday, StartOfWeekUTC(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)))

	// Monday maps to itself.
	assert.Equal(t, monday, StartOfWeekUTC(monday))
}

func TestSameWeek(t *testing.T) {
	wednesday := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	nextMonday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameWeek(wednesday, sunday))
	assert.False(t, SameWeek(sunday, nextMonday))
}

func TestStartOfMonthUTC(t *testing.T) {
	got := StartOfMonthUTC(time.Date(2026, 8, 17, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), got)
}
