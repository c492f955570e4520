package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/cccrawl/crawler/pkg/timeutil"
)

// Limiter is a cooperative, calls-per-window rate limiter: it tracks the
// timestamps of the last Calls invocations it admitted, and blocks a new
// caller until the oldest of those timestamps has aged out of Window.
// Unlike a leaky-bucket limiter it never drops or rejects calls, it only
// delays them — a caller that calls Wait always eventually proceeds.
//
// Grounded on the per-endpoint rate limit decorator: each platform
// endpoint gets its own Limiter instance so Codeforces's API and HTML
// budgets never contend with CSES's.
type Limiter struct {
	calls   int
	window  time.Duration
	now     func() time.Time
	sleeper timeutil.Sleeper

	mu    sync.Mutex
	queue []time.Time
}

// New builds a Limiter from cfg. Calls <= 0 is treated as unlimited: Wait
// returns immediately.
func New(cfg Config) *Limiter {
	return &Limiter{
		calls:   cfg.Calls,
		window:  cfg.Window,
		now:     cfg.now,
		sleeper: cfg.sleeper(),
		queue:   make([]time.Time, 0, max(cfg.Calls, 0)),
	}
}

// Wait blocks until a new call is admitted under the calls-per-window
// budget, then records that call and returns. It returns ctx.Err() if ctx
// is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.calls <= 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.mu.Lock()
		now := l.now()
		if len(l.queue) < l.calls {
			l.queue = append(l.queue, now)
			l.mu.Unlock()
			return nil
		}

		oldest := l.queue[0]
		wait := oldest.Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			l.mu.Lock()
			// Re-check under lock: another goroutine may have already
			// evicted the head while we were computing wait.
			if len(l.queue) >= l.calls {
				l.queue = l.queue[1:]
			}
			l.queue = append(l.queue, l.now())
			l.mu.Unlock()
			return nil
		}

		if err := l.sleeper.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}
