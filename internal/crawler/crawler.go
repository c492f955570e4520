// Package crawler declares the platform crawler contract (C5) dispatched
// by the Manager per integration's platform tag, and the shared toolkit
// injected into every platform's crawler.
package crawler

import (
	"context"
	"net/http"

	"github.com/cccrawl/crawler/internal/model"
	"github.com/cccrawl/crawler/internal/paste"
)

// PlatformCrawler is the two-phase contract every platform implements.
// Dispatch is by the platform tag on the integration, not dynamic typing:
// the Manager holds one PlatformCrawler per platform.Platform value.
type PlatformCrawler interface {
	// Discover yields every submission that currently exists for
	// integration and has not yet been reported, on ch. It MAY also
	// yield already-reported submissions — dedup is the Manager's job.
	// It closes ch when done and returns a *domainfailure.CrawlerError
	// only for conditions implying the integration itself is
	// misconfigured; transient failures must not reach the caller as
	// CrawlerError.
	Discover(ctx context.Context, integration model.Integration, ch chan<- model.CrawledSubmission) error

	// Finalize performs the expensive enrichment of a single crawled
	// submission exactly once. On partial failure it returns a valid
	// Submission omitting the unobtainable fields rather than an error.
	Finalize(ctx context.Context, crawled model.CrawledSubmission) (model.Submission, error)
}

// Loader is implemented by crawlers needing one-shot initialization
// before the main loop starts (CSES uses it to log in). The process
// entry point (cmd/cccrawl) calls Load on every crawler that implements
// it, concurrently, before starting the Manager's core loop.
type Loader interface {
	Load(ctx context.Context) error
}

// Toolkit bundles the collaborators shared across all platform crawlers,
// constructed once in main and injected into each crawler: the HTTP
// client (with its cookie jar, mutated only by CSES's login) and the
// paste uploader. Grounded on the original implementation's
// CrawlerToolkit (shared httpx.AsyncClient + FileUploadService).
type Toolkit struct {
	HTTPClient *http.Client
	Uploader   paste.Uploader
}
