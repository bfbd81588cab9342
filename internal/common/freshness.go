package common

import "time"

// FreshnessSnapshot is how long a stored estimate may be served as "cached"
// before a caller asking for it gets a fresh cycle instead.
const FreshnessSnapshot = 5 * time.Minute

// IsFresh returns true if updated is within ttl of now
func IsFresh(updated, now time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) < ttl
}
