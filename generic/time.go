package generic

import (
	"time"
)

// =============================================================================
// CALENDAR HELPERS
// =============================================================================

const DateLayout = "2006-01-02"

// DefaultRestDay is the weekly rest day of the business.
const DefaultRestDay = time.Friday

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay drops the clock part, keeping the calendar date in UTC.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func DaysBetween(from, to time.Time) int {
	return int(StartOfDay(to).Sub(StartOfDay(from)).Hours() / 24)
}

// WholeYearsBetween is floor(days/365), clamped at zero.
func WholeYearsBetween(from, to time.Time) int {
	days := DaysBetween(from, to)
	if days <= 0 {
		return 0
	}
	return days / 365
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

// FormatDate renders YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
