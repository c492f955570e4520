package retry

import (
	"math/rand"
	"time"

	"github.com/cccrawl/crawler/pkg/timeutil"
)

// RetryParam configures a Retry call. Unlike a max-attempts retrier, the
// cutoff here is wall-clock: Retry keeps retrying recoverable errors until
// the cumulative elapsed time since the first attempt would exceed
// WallClockCap, then gives up and returns the last error.
type RetryParam struct {
	Backoff      timeutil.BackoffParam
	Jitter       time.Duration
	WallClockCap time.Duration
	Sleeper      timeutil.Sleeper
	Rng          *rand.Rand

	// ShouldRetry decides whether err is worth retrying at all. A nil
	// ShouldRetry retries every non-nil error until the wall-clock cap
	// is hit.
	ShouldRetry func(err error) bool
}

func (p RetryParam) shouldRetry(err error) bool {
	if p.ShouldRetry == nil {
		return true
	}
	return p.ShouldRetry(err)
}
