// ABOUTME: Local-day helpers for the daily shuffle counter reset
// ABOUTME: Days are compared as local-timezone date strings, boundary at local midnight

package timeutil

import "time"

// DayLayout is the canonical date-string form persisted in
// lastShuffleResetDate.
const DayLayout = "2006-01-02"

// StartOfDay returns midnight (00:00:00) of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfToday returns midnight of the current day in local time.
func StartOfToday() time.Time {
	return StartOfDay(time.Now())
}

// DayString renders t as a local-timezone date string.
func DayString(t time.Time) string {
	return t.Local().Format(DayLayout)
}

// SameDay reports whether two instants fall on the same local day.
func SameDay(a, b time.Time) bool {
	return DayString(a) == DayString(b)
}
