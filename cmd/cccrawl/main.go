// Command cccrawl is the cccrawl process entry point: it constructs every
// collaborator, loads the platform crawlers, then hands control to the
// Manager's core loop until a signal cancels it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"sync"

	"github.com/cccrawl/crawler/internal/cli"
	"github.com/cccrawl/crawler/internal/config"
	"github.com/cccrawl/crawler/internal/crawler"
	"github.com/cccrawl/crawler/internal/crawler/codeforces"
	"github.com/cccrawl/crawler/internal/crawler/cses"
	"github.com/cccrawl/crawler/internal/manager"
	"github.com/cccrawl/crawler/internal/metadata"
	"github.com/cccrawl/crawler/internal/paste"
	"github.com/cccrawl/crawler/internal/platform"
	"github.com/cccrawl/crawler/internal/store"
	"github.com/cccrawl/crawler/internal/transport"
	"github.com/cccrawl/crawler/pkg/limiter"
	"github.com/cccrawl/crawler/pkg/retry"
	"github.com/cccrawl/crawler/pkg/timeutil"
)

func main() {
	cli.SetRunFunc(run)
	cli.Execute()
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("cccrawl: %w", err)
	}

	recorder := metadata.NewRecorder(metadata.NewSlogSink(slog.Default()))

	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("cccrawl: cookie jar: %w", err)
	}
	httpClient := &http.Client{Jar: jar}

	uploader := paste.NewIttyUploader(httpClient, paste.Config{
		TTLSeconds: int(cfg.PasteTTL.Seconds()),
		KeyLength:  cfg.PasteKeyLength,
	})
	toolkit := crawler.Toolkit{HTTPClient: httpClient, Uploader: uploader}

	s, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		return fmt.Errorf("cccrawl: store: %w", err)
	}
	defer s.Close(context.Background())

	cfCrawler := codeforces.New(
		toolkit,
		endpointFor(httpClient, cfg.NewCodeforcesAPILimiter(), cfg.CodeforcesAPIBackoff, recorder),
		endpointFor(httpClient, cfg.NewCodeforcesHTMLLimiter(), cfg.CodeforcesHTMLBackoff, recorder),
		recorder,
	)
	csesCrawler := cses.New(
		toolkit,
		endpointFor(httpClient, cfg.NewCSESLimiter(), cfg.CSESBackoff, recorder),
		cfg.CSESUsername,
		cfg.CSESPassword,
		recorder,
	)

	crawlers := map[platform.Platform]crawler.PlatformCrawler{
		platform.Codeforces: cfCrawler,
		platform.CSES:       csesCrawler,
	}

	if err := loadAll(ctx, []crawler.Loader{csesCrawler}); err != nil {
		return fmt.Errorf("cccrawl: load: %w", err)
	}

	m := manager.New(s, crawlers, recorder)
	return m.Crawl(ctx)
}

// endpointFor assembles a transport.Endpoint from one of config's
// per-platform rate limit / backoff pairs. Each endpoint gets its own
// *rand.Rand so concurrent backoff jitter across platforms never
// contends on shared RNG state.
func endpointFor(client *http.Client, l *limiter.Limiter, backoff config.Backoff, recorder *metadata.Recorder) transport.Endpoint {
	return transport.Endpoint{
		Client:   client,
		Limiter:  l,
		Recorder: recorder,
		RetryParam: retry.RetryParam{
			Backoff:      backoff.Param,
			Jitter:       backoff.Jitter,
			WallClockCap: backoff.WallClockCap,
			Sleeper:      timeutil.RealSleeper{},
			Rng:          rand.New(rand.NewSource(rand.Int63())),
		},
	}
}

// loadAll runs every Loader's Load concurrently before the core loop starts.
func loadAll(ctx context.Context, loaders []crawler.Loader) error {
	var wg sync.WaitGroup
	errs := make([]error, len(loaders))
	for i, l := range loaders {
		wg.Add(1)
		go func(i int, l crawler.Loader) {
			defer wg.Done()
			errs[i] = l.Load(ctx)
		}(i, l)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
