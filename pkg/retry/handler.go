package retry

import (
	"context"
	"time"

	"github.com/cccrawl/crawler/pkg/failure"
	"github.com/cccrawl/crawler/pkg/timeutil"
)

// Retry calls fn, retrying recoverable errors with exponential backoff
// until either fn succeeds, fn's error fails ShouldRetry, ctx is cancelled,
// or the cumulative elapsed time since the first attempt exceeds
// param.WallClockCap. There is deliberately no max-attempts limit: a
// fast-failing endpoint under a long wall-clock cap can retry many more
// times than a slow one, which is the point.
func Retry[T any](ctx context.Context, fn func() (T, error), param RetryParam) (T, error) {
	start := time.Now()
	var zero T
	var lastErr error

	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return zero, &RetryError{Attempts: attempt, Elapsed: time.Since(start), Cause: ctx.Err()}
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if classified, ok := err.(failure.ClassifiedError); ok && classified.Severity() == failure.SeverityFatal {
			return zero, &RetryError{Attempts: attempt + 1, Elapsed: time.Since(start), Cause: err}
		}

		if !param.shouldRetry(err) {
			return zero, &RetryError{Attempts: attempt + 1, Elapsed: time.Since(start), Cause: err}
		}

		delay := nextDelay(attempt, param)
		if time.Since(start)+delay > param.WallClockCap {
			return zero, &RetryError{Attempts: attempt + 1, Elapsed: time.Since(start), Cause: lastErr}
		}

		if err := sleeperFor(param).Sleep(ctx, delay); err != nil {
			return zero, &RetryError{Attempts: attempt + 1, Elapsed: time.Since(start), Cause: err}
		}
	}
}

func nextDelay(attempt int, param RetryParam) time.Duration {
	return timeutil.ExponentialBackoffDelay(attempt, param.Jitter, param.Rng, param.Backoff)
}

// sleeperFor defaults to timeutil.RealSleeper when the caller didn't
// inject one, same fallback pattern as pkg/limiter's Config.sleeper.
func sleeperFor(param RetryParam) timeutil.Sleeper {
	if param.Sleeper != nil {
		return param.Sleeper
	}
	return timeutil.RealSleeper{}
}
