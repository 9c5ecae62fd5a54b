package util

import (
	"strconv"
	"time"
)

// DateLayout is the calendar-date key format used for persisted artifacts.
const DateLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t as a YYYY-MM-DD key in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FloorDay truncates t to UTC midnight of its calendar day.
func FloorDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FloorHour truncates t to the start of its UTC hour.
func FloorHour(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), 0, 0, 0, time.UTC)
}

// MinDate returns the earliest calendar date (UTC) among the given instants.
// The zero time is returned when ts is empty.
func MinDate(ts []time.Time) time.Time {
	if len(ts) == 0 {
		return time.Time{}
	}
	min := FloorDay(ts[0])
	for _, t := range ts[1:] {
		if d := FloorDay(t); d.Before(min) {
			min = d
		}
	}
	return min
}

// DateRange lists every calendar date from from to to inclusive.
func DateRange(from, to time.Time) []time.Time {
	from, to = FloorDay(from), FloorDay(to)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
