package repository

import (
	"time"

	"SigForge/pkg/util"
)

// Granularity is the time bucket used when aggregating alternative-data
// events before joining them onto market bars.
type Granularity string

const (
	GranDaily  Granularity = "1d"
	GranHourly Granularity = "1h"
)

// IsValidGranularity returns true if g is a supported bucket size.
func IsValidGranularity(g Granularity) bool {
	switch g {
	case GranDaily, GranHourly:
		return true
	default:
		return false
	}
}

// DefaultGranularity returns the default bucket size.
func DefaultGranularity() Granularity { return GranDaily }

// NormalizeGranularity converts a raw string to a valid granularity (or default).
func NormalizeGranularity(s string) Granularity {
	if s == "" {
		return DefaultGranularity()
	}
	g := Granularity(s)
	if IsValidGranularity(g) {
		return g
	}
	return DefaultGranularity()
}

// Floor truncates t down to the start of its bucket, in UTC.
func (g Granularity) Floor(t time.Time) time.Time {
	switch g {
	case GranHourly:
		return util.FloorHour(t)
	default:
		return util.FloorDay(t)
	}
}
