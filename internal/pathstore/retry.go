package pathstore

import (
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// MaxRetries bounds retries of a single write.
const MaxRetries = 3

// IsRetryable reports whether err is worth retrying: rate limits, server
// errors and network failures.
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter, growing
// from base and capped at 30s.
func Backoff(attempt int, base time.Duration) time.Duration {
	d := base << uint(attempt)
	if d > 30*time.Second || d <= 0 {
		d = 30 * time.Second
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}
	return d
}
