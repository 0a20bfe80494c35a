// Package clock abstracts wall-clock time for reconcile callers.
//
// The engine never reads the clock. Only the CLI and the watch loop do, and
// they receive a Clock so tests can substitute a fake.
package clock

import "time"

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the current time using the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}
