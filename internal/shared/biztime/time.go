// Package biztime provides utilities for business timezone calculations.
// All storage and transport use UTC. The business timezone is only used to
// decide calendar boundaries: the monthly quota reset follows the business
// calendar month and the weekly invite-reward reset follows the business
// week (Monday start).
package biztime

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone is the default business timezone.
const DefaultTimezone = "UTC"

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone location, auto-initializing with
// the default when Init was never called.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// SameMonth reports whether a and b fall in the same calendar month of the
// business timezone.
func SameMonth(a, b time.Time) bool {
	al := a.In(Location())
	bl := b.In(Location())
	return al.Year() == bl.Year() && al.Month() == bl.Month()
}

// StartOfMonthUTC returns the start of the month containing t in the
// business timezone, converted to UTC.
func StartOfMonthUTC(t time.Time) time.Time {
	lt := t.In(Location())
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, Location()).UTC()
}

// StartOfWeekUTC returns the start of the ISO week (Monday 00:00) containing
// t in the business timezone, converted to UTC.
func StartOfWeekUTC(t time.Time) time.Time {
	lt := t.In(Location())
	weekday := int(lt.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the preceding Monday-based week
	}
	day := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, Location())
	return day.AddDate(0, 0, -(weekday - 1)).UTC()
}

// SameWeek reports whether a and b fall in the same Monday-based week of
// the business timezone.
func SameWeek(a, b time.Time) bool {
	return StartOfWeekUTC(a).Equal(StartOfWeekUTC(b))
}

// ToUTC converts a time (any timezone) to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}
