// Package config builds the process configuration from the environment.
// There are deliberately no CLI flags: everything is read from env vars,
// with CSES credentials optional.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/cccrawl/crawler/pkg/limiter"
	"github.com/cccrawl/crawler/pkg/timeutil"
)

// RateLimit mirrors a limiter.Config without its Sleeper/Now fields,
// which are wired in at construction time, never from the environment.
type RateLimit struct {
	Calls  int
	Window time.Duration
}

// Backoff mirrors a retry schedule: initial delay, multiplier, wall-clock
// cap. These defaults match the documented numbers per endpoint and
// are only ever overridden in tests.
type Backoff struct {
	Param        timeutil.BackoffParam
	Jitter       time.Duration
	WallClockCap time.Duration
}

// Config is the fully resolved process configuration.
type Config struct {
	MongoURI     string
	DatabaseName string

	CSESUsername string
	CSESPassword string

	CodeforcesAPILimit  RateLimit
	CodeforcesHTMLLimit RateLimit
	CSESLimit           RateLimit

	CodeforcesAPIBackoff  Backoff
	CodeforcesHTMLBackoff Backoff
	CSESBackoff           Backoff

	PasteTTL       time.Duration
	PasteKeyLength int
}

// Builder assembles a Config via WithX(...) chaining over a zero-value
// struct, validated by Build().
type Builder struct {
	cfg Config
	err error
}

// NewBuilder seeds a Builder with documented defaults so callers
// only need to override what the environment actually supplies.
func NewBuilder() *Builder {
	return &Builder{cfg: defaultConfig()}
}

func defaultConfig() Config {
	return Config{
		DatabaseName: "dev",

		CodeforcesAPILimit:  RateLimit{Calls: 3, Window: 3 * time.Second},
		CodeforcesHTMLLimit: RateLimit{Calls: 1, Window: 10 * time.Second},
		CSESLimit:           RateLimit{Calls: 3, Window: 5 * time.Second},

		CodeforcesAPIBackoff: Backoff{
			Param: timeutil.BackoffParam{
				InitialDuration: time.Second,
				Multiplier:      2,
				MaxDuration:     120 * time.Second,
			},
			Jitter:       time.Second,
			WallClockCap: 120 * time.Second,
		},
		CodeforcesHTMLBackoff: Backoff{
			Param: timeutil.BackoffParam{
				InitialDuration: 15 * time.Second,
				Multiplier:      3,
				MaxDuration:     600 * time.Second,
			},
			Jitter:       time.Second,
			WallClockCap: 600 * time.Second,
		},
		CSESBackoff: Backoff{
			Param: timeutil.BackoffParam{
				InitialDuration: time.Second,
				Multiplier:      2,
				MaxDuration:     120 * time.Second,
			},
			Jitter:       time.Second,
			WallClockCap: 120 * time.Second,
		},

		PasteTTL:       7 * 24 * time.Hour,
		PasteKeyLength: 8,
	}
}

func (b *Builder) WithMongoURI(uri string) *Builder {
	b.cfg.MongoURI = uri
	return b
}

func (b *Builder) WithDatabaseName(name string) *Builder {
	if name != "" {
		b.cfg.DatabaseName = name
	}
	return b
}

func (b *Builder) WithCSESCredentials(username, password string) *Builder {
	b.cfg.CSESUsername = username
	b.cfg.CSESPassword = password
	return b
}

// Build validates the accumulated config. MongoURI is the only required
// field: CSES credentials are optional by design (degraded anonymous
// mode), everything else has a spec-derived default.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if b.cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("config: COSMOS_ENDPOINT/MongoURI is required")
	}
	return b.cfg, nil
}

// FromEnv reads the process environment: COSMOS_ENDPOINT, COSMOS_KEY, ENV_NAME,
// CSES_USERNAME, CSES_PASSWORD. COSMOS_ENDPOINT and COSMOS_KEY are
// combined into a single mongo connection URI since mongo-driver takes
// credentials embedded in the URI rather than split endpoint/key.
func FromEnv() (Config, error) {
	endpoint := os.Getenv("COSMOS_ENDPOINT")
	key := os.Getenv("COSMOS_KEY")

	builder := NewBuilder().
		WithMongoURI(mongoURI(endpoint, key)).
		WithDatabaseName(os.Getenv("ENV_NAME")).
		WithCSESCredentials(os.Getenv("CSES_USERNAME"), os.Getenv("CSES_PASSWORD"))

	return builder.Build()
}

// mongoURI combines COSMOS_ENDPOINT and COSMOS_KEY into a single mongo
// connection string: mongo-driver takes credentials embedded in the URI
// userinfo rather than as a separate endpoint/key pair, so this is the
// adapter between Cosmos's two-value convention and mongo-driver's one.
func mongoURI(endpoint, key string) string {
	if endpoint == "" {
		return ""
	}
	if key == "" {
		return endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.User = url.UserPassword(u.User.Username(), key)
	return u.String()
}

// HasCSESCredentials reports whether CSES should run authenticated or in
// degraded anonymous mode.
func (c Config) HasCSESCredentials() bool {
	return c.CSESUsername != "" && c.CSESPassword != ""
}

// NewCodeforcesAPILimiter, NewCodeforcesHTMLLimiter and NewCSESLimiter
// build the per-endpoint limiters from config, each owning its own
// queue so the three budgets never contend with one another.
func (c Config) NewCodeforcesAPILimiter() *limiter.Limiter {
	return limiter.New(limiter.Config{Calls: c.CodeforcesAPILimit.Calls, Window: c.CodeforcesAPILimit.Window})
}

func (c Config) NewCodeforcesHTMLLimiter() *limiter.Limiter {
	return limiter.New(limiter.Config{Calls: c.CodeforcesHTMLLimit.Calls, Window: c.CodeforcesHTMLLimit.Window})
}

func (c Config) NewCSESLimiter() *limiter.Limiter {
	return limiter.New(limiter.Config{Calls: c.CSESLimit.Calls, Window: c.CSESLimit.Window})
}
