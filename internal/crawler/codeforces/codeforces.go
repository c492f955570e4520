// Package codeforces implements the platform crawler contract against
// Codeforces's JSON status API and HTML submission pages.
package codeforces

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cccrawl/crawler/internal/crawler"
	domainfailure "github.com/cccrawl/crawler/internal/failure"
	"github.com/cccrawl/crawler/internal/metadata"
	"github.com/cccrawl/crawler/internal/model"
	"github.com/cccrawl/crawler/internal/transport"
)

const gymContestThreshold = 100000

// Crawler implements crawler.PlatformCrawler for Codeforces. It holds no
// per-integration state: the API limiter and the HTML limiter are each
// shared across every Codeforces integration, one limiter instance shared across every integration on that platform.
type Crawler struct {
	toolkit  crawler.Toolkit
	api      transport.Endpoint
	html     transport.Endpoint
	recorder *metadata.Recorder
}

// New builds a Codeforces crawler. api and html must already be
// configured with Codeforces's documented budgets (3 calls/3s for the
// API, 1 call/10s for HTML) and backoff schedules (base-2 for the API,
// 15*3^n for HTML).
func New(toolkit crawler.Toolkit, api, html transport.Endpoint, recorder *metadata.Recorder) *Crawler {
	api.RetryableStatus = func(status int) bool {
		return status != http.StatusBadRequest && (status < 200 || status >= 300)
	}
	html.RetryableStatus = func(status int) bool {
		return status != http.StatusFound && (status < 200 || status >= 300)
	}
	html.Client = transport.NoRedirect(html.Client)

	return &Crawler{toolkit: toolkit, api: api, html: html, recorder: recorder}
}

type statusResponse struct {
	Result []statusEntry `json:"result"`
}

type statusEntry struct {
	ID                  int    `json:"id"`
	CreationTimeSeconds int64  `json:"creationTimeSeconds"`
	Verdict             string `json:"verdict"`
	Problem             struct {
		ContestID int    `json:"contestId"`
		Index     string `json:"index"`
	} `json:"problem"`
}

func contestPathSegment(contestID int) string {
	if contestID > gymContestThreshold {
		return "gym"
	}
	return "contest"
}

func (c *Crawler) Discover(ctx context.Context, integration model.Integration, ch chan<- model.CrawledSubmission) error {
	defer close(ch)

	if integration.Codeforces == nil {
		return &domainfailure.CrawlerError{IntegrationID: integration.ID, Reason: "integration is not a codeforces integration"}
	}
	handle := integration.Codeforces.Handle

	url := fmt.Sprintf("https://codeforces.com/api/user.status?handle=%s&from=1", handle)
	result, err := c.api.Do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return err
	}

	if result.StatusCode == http.StatusBadRequest {
		return &domainfailure.CrawlerError{IntegrationID: integration.ID, Reason: fmt.Sprintf("unknown handle %q", handle)}
	}
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		return &domainfailure.TransportError{URL: url, StatusCode: result.StatusCode}
	}

	var parsed statusResponse
	if err := json.Unmarshal(result.Body, &parsed); err != nil {
		return &domainfailure.CrawlerError{IntegrationID: integration.ID, Reason: "malformed user.status response", Cause: err}
	}

	for _, entry := range parsed.Result {
		segment := contestPathSegment(entry.Problem.ContestID)
		problemURL := fmt.Sprintf("https://codeforces.com/%s/%d/problem/%s", segment, entry.Problem.ContestID, entry.Problem.Index)
		submissionURL := fmt.Sprintf("https://codeforces.com/%s/%d/submission/%d", segment, entry.Problem.ContestID, entry.ID)
		submittedAt := time.Unix(entry.CreationTimeSeconds, 0).UTC()

		crawled := model.CrawledSubmission{
			IntegrationID: integration.ID,
			Problem:       model.NewProblem(problemURL),
			Verdict:       model.VerdictFromCodeforces(entry.Verdict),
			SubmittedAt:   &submittedAt,
			SubmissionURL: &submissionURL,
		}

		select {
		case ch <- crawled:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (c *Crawler) Finalize(ctx context.Context, crawled model.CrawledSubmission) (model.Submission, error) {
	id, err := crawled.ID()
	if err != nil {
		return model.Submission{}, err
	}
	submission := model.FromCrawled(crawled, id, time.Time{})

	if crawled.SubmissionURL == nil {
		return submission, nil
	}

	result, err := c.html.Do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, *crawled.SubmissionURL, nil)
	})
	if err != nil {
		return model.Submission{}, err
	}

	if result.StatusCode == http.StatusFound {
		// Running contest or gym: the submission page isn't public yet.
		return submission, nil
	}
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		return model.Submission{}, &domainfailure.TransportError{URL: *crawled.SubmissionURL, StatusCode: result.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return model.Submission{}, &domainfailure.CrawlerError{IntegrationID: crawled.IntegrationID, Reason: "unparseable submission page", Cause: err}
	}

	source := doc.Find("pre#program-source-text")
	if source.Length() == 0 {
		return model.Submission{}, &domainfailure.CrawlerError{IntegrationID: crawled.IntegrationID, Reason: "submission page missing program-source-text"}
	}

	sourceText := source.Text()
	uploadedURL, err := c.toolkit.Uploader.Upload(ctx, sourceText)
	if err != nil {
		c.recorder.Errored(ctx, metadata.CauseUploadFailed, err)
		return submission, nil
	}

	submission.RawCodeURL = &uploadedURL
	return submission, nil
}
