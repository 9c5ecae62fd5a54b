package features

import "time"

// Clock features are evaluated in UTC off the bar timestamp.

// DayOfWeek returns the weekday with Monday as 0 and Sunday as 6.
func DayOfWeek(t time.Time) int32 {
	return int32((int(t.UTC().Weekday()) + 6) % 7)
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool { return DayOfWeek(t) >= 5 }

// IsMarketOpen reports whether t falls inside the coarse trading window:
// a weekday with the hour in [9, 16]. This is a clock heuristic, not a
// per-venue calendar; holidays and half days are not modeled.
func IsMarketOpen(t time.Time) bool {
	h := t.UTC().Hour()
	return !IsWeekend(t) && h >= 9 && h <= 16
}
