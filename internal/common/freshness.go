// Package common provides shared utilities for the portfolio tracker
package common

import "time"

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}

// IsFreshAt returns true if updated is within ttl of now.
// Used where the caller injects its own clock.
func IsFreshAt(updated time.Time, ttl time.Duration, now time.Time) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) < ttl
}
