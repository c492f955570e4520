package retry

import (
	"fmt"
	"time"

	"github.com/cccrawl/crawler/pkg/failure"
)

// RetryError wraps the last error seen by Retry once the wall-clock cap is
// exhausted or a non-retryable error is encountered. It is itself a
// ClassifiedError whose Severity is that of the first ClassifiedError in
// the cause's Unwrap chain, or recoverable when the chain holds none; the
// cause itself stays reachable through Unwrap.
type RetryError struct {
	Attempts int
	Elapsed  time.Duration
	Cause    error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry: gave up after %d attempt(s), %s elapsed: %v", e.Attempts, e.Elapsed, e.Cause)
}

func (e *RetryError) Unwrap() error {
	return e.Cause
}

func (e *RetryError) Severity() failure.Severity {
	var classified failure.ClassifiedError
	if ok := asClassified(e.Cause, &classified); ok {
		return classified.Severity()
	}
	return failure.SeverityRecoverable
}

func asClassified(err error, target *failure.ClassifiedError) bool {
	for err != nil {
		if c, ok := err.(failure.ClassifiedError); ok {
			*target = c
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
