package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It decides the first month of the rolling window and the DTSTAMP of exported calendars.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}
