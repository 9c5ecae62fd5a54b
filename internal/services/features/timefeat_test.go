package features

import (
	"testing"
	"time"
)

func TestDayOfWeekMondayIsZero(t *testing.T) {
	// 2024-01-01 is a Monday, 2024-01-07 a Sunday.
	mon := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sun := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)

	if got := DayOfWeek(mon); got != 0 {
		t.Fatalf("DayOfWeek(monday) = %d, want 0", got)
	}
	if got := DayOfWeek(sun); got != 6 {
		t.Fatalf("DayOfWeek(sunday) = %d, want 6", got)
	}
}

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	fri := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	if !IsWeekend(sat) {
		t.Fatal("saturday should be a weekend")
	}
	if IsWeekend(fri) {
		t.Fatal("friday should not be a weekend")
	}
}

func TestIsMarketOpen(t *testing.T) {
	cases := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"weekday mid-session", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), true},
		{"weekday before open", time.Date(2024, 1, 1, 8, 59, 0, 0, time.UTC), false},
		{"weekday at open", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), true},
		{"weekday last open hour", time.Date(2024, 1, 1, 16, 59, 0, 0, time.UTC), true},
		{"weekday after close", time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC), false},
		{"saturday mid-day", time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := IsMarketOpen(tc.ts); got != tc.want {
			t.Errorf("%s: IsMarketOpen = %v, want %v", tc.name, got, tc.want)
		}
	}
}
