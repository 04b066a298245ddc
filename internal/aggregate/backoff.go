package aggregate

import (
	"math/rand/v2"
	"time"
)

// Backoff returns the delay before retry number attempt (1-based): exponential
// growth from initial, capped at limit, with full jitter.
func Backoff(attempt int, initial, limit time.Duration) time.Duration {
	if attempt <= 0 || initial <= 0 {
		return 0
	}
	d := initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d > limit {
			d = limit
			break
		}
	}
	return time.Duration(rand.Int64N(int64(d) + 1)) // #nosec G404 -- jitter only
}
