// Package clock provides an abstraction for time operations to improve testability.
// Instead of calling time.Now() directly, code can use the Clock interface which
// can be mocked in tests to control time-dependent behavior.
package clock

import "time"

// Clock is an interface for time operations.
// This allows code to be tested with mock clocks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Ensure RealClock implements Clock.
var _ Clock = RealClock{}

// NowUTC formats c's current time as a canonical UTC ISO-8601 timestamp with
// a "Z" suffix. Every timestamp stored in runtime state, activity events,
// and DCL commits is produced by this helper, so canonicalization never has
// to special-case time.Time values.
func NowUTC(c Clock) string {
	return FormatUTC(c.Now())
}

// FormatUTC formats t as a canonical UTC ISO-8601 timestamp with a "Z"
// suffix, converting to UTC first if t carries a different location.
func FormatUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}
