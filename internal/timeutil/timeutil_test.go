// ABOUTME: Tests for local-day helpers
// ABOUTME: Verifies midnight boundaries and date-string comparison

package timeutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 3, 14, 15, 9, 26, 535, time.Local)
	result := StartOfDay(in)

	if result.Year() != 2026 || result.Month() != 3 || result.Day() != 14 {
		t.Errorf("StartOfDay() date mismatch: got %v", result)
	}
	if result.Hour() != 0 || result.Minute() != 0 || result.Second() != 0 || result.Nanosecond() != 0 {
		t.Errorf("StartOfDay() should be midnight, got %v", result)
	}
}

func TestStartOfToday(t *testing.T) {
	result := StartOfToday()
	now := time.Now()

	if result.Year() != now.Year() || result.Month() != now.Month() || result.Day() != now.Day() {
		t.Errorf("StartOfToday() date mismatch: got %v, expected date %v", result, now)
	}
	if result.Hour() != 0 || result.Minute() != 0 || result.Second() != 0 {
		t.Errorf("StartOfToday() should be midnight, got %v", result)
	}
}

func TestDayString(t *testing.T) {
	in := time.Date(2026, 1, 2, 23, 59, 59, 0, time.Local)
	if got := DayString(in); got != "2026-01-02" {
		t.Errorf("DayString() = %q, expected %q", got, "2026-01-02")
	}
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2026, 5, 1, 0, 0, 1, 0, time.Local)
	night := time.Date(2026, 5, 1, 23, 59, 59, 0, time.Local)
	nextDay := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)

	if !SameDay(morning, night) {
		t.Errorf("SameDay() = false for two instants on the same day")
	}
	if SameDay(night, nextDay) {
		t.Errorf("SameDay() = true across a midnight boundary")
	}
}
