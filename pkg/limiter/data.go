package limiter

import (
	"time"

	"github.com/cccrawl/crawler/pkg/timeutil"
)

// Config describes a calls-per-window budget: at most Calls invocations may
// start within any trailing Window of wall-clock time.
type Config struct {
	Calls  int
	Window time.Duration

	// Sleeper lets tests swap in a no-op or fake clock instead of
	// blocking the test process for real.
	Sleeper timeutil.Sleeper

	// Now returns the current time; defaults to time.Now. Tests may
	// override it to drive the limiter with a fake clock.
	Now func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) sleeper() timeutil.Sleeper {
	if c.Sleeper != nil {
		return c.Sleeper
	}
	return timeutil.RealSleeper{}
}
