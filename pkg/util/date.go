package util

import (
	"strconv"
	"time"
)

// CalendarDateLayout is the layout used by the event-calendar and report
// artifact names.
const CalendarDateLayout = "2006-01-02"

// ParseTime tries RFC3339, the calendar date layout, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(CalendarDateLayout, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// DateStamp renders t as the date-stamp used in artifact paths.
func DateStamp(t time.Time) string {
	return t.Format(CalendarDateLayout)
}

// SameCalendarDay reports whether a and b fall on the same UTC calendar day.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the signed fractional number of days from `from` to
// `to`. Negative when `to` is in the past relative to `from`.
func DaysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
