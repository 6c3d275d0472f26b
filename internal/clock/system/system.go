// Package system provides a real clock implementation.
package system

import "time"

// Clock implements news.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in the server's location. Day rollover for
// the manual-fetch counter follows server-local midnight, matching the
// "today" the UI shows.
func (Clock) Now() time.Time {
	return time.Now()
}
