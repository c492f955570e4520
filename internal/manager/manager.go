// Package manager implements the Manager core loop (C8): the single
// driver that walks the store's fair, infinite integration cycle,
// dispatches each integration to its platform crawler, dedups against
// previously collected submission ids, and upserts the result.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/cccrawl/crawler/internal/crawler"
	domainfailure "github.com/cccrawl/crawler/internal/failure"
	"github.com/cccrawl/crawler/internal/metadata"
	"github.com/cccrawl/crawler/internal/model"
	"github.com/cccrawl/crawler/internal/platform"
	"github.com/cccrawl/crawler/internal/store"
	"github.com/cccrawl/crawler/pkg/failure"
)

// Manager drives the crawl. It holds one PlatformCrawler per platform,
// dispatched by the integration's platform tag, never by dynamic typing.
type Manager struct {
	store    store.Store
	crawlers map[platform.Platform]crawler.PlatformCrawler
	recorder *metadata.Recorder
	now      func() time.Time
}

func New(s store.Store, crawlers map[platform.Platform]crawler.PlatformCrawler, recorder *metadata.Recorder) *Manager {
	return &Manager{store: s, crawlers: crawlers, recorder: recorder, now: time.Now}
}

// Crawl runs the core loop until ctx is cancelled. It never returns
// otherwise: per-integration failures are logged and the loop moves on
// to the next integration, matching the pseudocode's "except: log; continue".
func (m *Manager) Crawl(ctx context.Context) error {
	integrations, errs := m.store.Integrations(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.recorder.Errored(ctx, metadata.CauseStore, err)
		case integration, ok := <-integrations:
			if !ok {
				return nil
			}
			m.runPass(ctx, integration)
		}
	}
}

// runPass executes one integration's discover -> dedup -> finalize ->
// upsert cycle. It never propagates an error to the caller: every
// failure is logged and the loop simply moves to the next integration,
// leaving last_fetch untouched so the next pass retries naturally.
func (m *Manager) runPass(ctx context.Context, integration model.Integration) {
	c, ok := m.crawlers[integration.Platform]
	if !ok {
		m.recorder.Errored(ctx, metadata.CauseDomain, &domainfailure.CrawlerError{
			IntegrationID: integration.ID,
			Reason:        "no crawler registered for platform " + string(integration.Platform),
		})
		return
	}

	m.recorder.PassStarted(ctx, integration.ID, string(integration.Platform))

	seenIDs, err := m.store.CollectedSubmissionIDs(ctx, integration.ID)
	if err != nil {
		m.recorder.Errored(ctx, metadata.CauseStore, err, metadata.Attribute{Key: metadata.AttrIntegrationID, Value: integration.ID})
		return
	}
	seen := make(map[string]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}

	ch := make(chan model.CrawledSubmission)
	discoverErrCh := make(chan error, 1)
	go func() {
		discoverErrCh <- c.Discover(ctx, integration, ch)
	}()

	var wg sync.WaitGroup
	finalized := 0
	for crawled := range ch {
		id, err := crawled.ID()
		if err != nil {
			m.recorder.Errored(ctx, metadata.CauseUnexpected, err, metadata.Attribute{Key: metadata.AttrIntegrationID, Value: integration.ID})
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}

		wg.Add(1)
		finalized++
		go func(crawled model.CrawledSubmission) {
			defer wg.Done()
			m.finalizeAndUpsert(ctx, c, crawled)
		}(crawled)
	}
	wg.Wait()

	if err := <-discoverErrCh; err != nil {
		var classified failure.ClassifiedError
		severity := failure.SeverityFatal
		if ok := asClassified(err, &classified); ok {
			severity = classified.Severity()
		}
		cause := metadata.CauseDomain
		if severity == failure.SeverityRecoverable {
			cause = metadata.CauseTransport
		}
		m.recorder.Errored(ctx, cause, err, metadata.Attribute{Key: metadata.AttrIntegrationID, Value: integration.ID})
		// Discovery errors abort the pass without mutating last_fetch,
		// per both transient and domain failure: retry is natural on
		// the next lap either way.
		return
	}

	integration.LastFetch = timePtr(m.now().UTC())
	if err := m.store.UpsertIntegration(ctx, integration); err != nil {
		m.recorder.Errored(ctx, metadata.CauseStore, err, metadata.Attribute{Key: metadata.AttrIntegrationID, Value: integration.ID})
		return
	}

	m.recorder.PassCompleted(ctx, integration.ID, string(integration.Platform), finalized)
}

// finalizeAndUpsert runs one crawled submission through finalization and
// persists it. first_seen_at is preserved across re-upserts: if a
// submission with this id already exists, its recorded first_seen_at is
// reused instead of stamping a new one.
func (m *Manager) finalizeAndUpsert(ctx context.Context, c crawler.PlatformCrawler, crawled model.CrawledSubmission) {
	submission, err := c.Finalize(ctx, crawled)
	if err != nil {
		m.recorder.Errored(ctx, metadata.CauseDomain, err, metadata.Attribute{Key: metadata.AttrIntegrationID, Value: crawled.IntegrationID})
		return
	}

	// first_seen_at is invariant across re-upserts: a crash between a
	// prior finalize and its upsert can cause this pass's dedup to
	// re-finalize an id the store already holds, so the stored value
	// (if any) always wins over stamping a fresh one.
	if existing, found, err := m.store.FindSubmission(ctx, submission.ID); err == nil && found {
		submission.FirstSeenAt = existing.FirstSeenAt
	} else {
		submission.FirstSeenAt = m.now().UTC()
	}

	if err := m.store.UpsertSubmission(ctx, submission); err != nil {
		m.recorder.Errored(ctx, metadata.CauseStore, err, metadata.Attribute{Key: metadata.AttrSubmissionID, Value: submission.ID})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func asClassified(err error, out *failure.ClassifiedError) bool {
	for err != nil {
		if c, ok := err.(failure.ClassifiedError); ok {
			*out = c
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
