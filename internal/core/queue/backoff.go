package queue

import "time"

// Backoff computes the retry delay after the given number of failed
// attempts: min(base * 2^attempt, cap).
func Backoff(attempt int, base, cap time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	// Shifting past 62 bits would overflow; the cap applies long before.
	if attempt > 32 {
		return cap
	}
	d := base << uint(attempt)
	if d <= 0 || d > cap {
		return cap
	}
	return d
}
