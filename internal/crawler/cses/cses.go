// Package cses implements the platform crawler contract against CSES's
// HTML user pages, its login form, and the per-problem "hack list" used
// to locate a user's own accepted source.
package cses

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cccrawl/crawler/internal/crawler"
	domainfailure "github.com/cccrawl/crawler/internal/failure"
	"github.com/cccrawl/crawler/internal/metadata"
	"github.com/cccrawl/crawler/internal/model"
	"github.com/cccrawl/crawler/internal/transport"
)

const defaultBaseURL = "https://cses.fi"

// State tracks the crawler instance's login lifecycle.
type State int

const (
	Unloaded State = iota
	Authenticating
	Authenticated
	Anonymous
)

// Crawler implements crawler.PlatformCrawler for CSES. Credentials are
// optional: with none set, Load puts the crawler in Anonymous mode and
// Finalize degrades to a no-op enrichment rather than failing.
type Crawler struct {
	toolkit  crawler.Toolkit
	endpoint transport.Endpoint
	recorder *metadata.Recorder
	username string
	password string

	mu      sync.Mutex
	state   State
	handles map[string]string // integration id -> handle, populated by Discover
	baseURL string
}

func New(toolkit crawler.Toolkit, endpoint transport.Endpoint, username, password string, recorder *metadata.Recorder) *Crawler {
	endpoint.RetryableStatus = func(status int) bool {
		return status != http.StatusFound && (status < 200 || status >= 300)
	}
	return &Crawler{
		toolkit:  toolkit,
		endpoint: endpoint,
		recorder: recorder,
		username: username,
		password: password,
		state:    Unloaded,
		handles:  make(map[string]string),
		baseURL:  defaultBaseURL,
	}
}

// SetBaseURLForTesting points the crawler at a local httptest.Server
// instead of cses.fi.
func (c *Crawler) SetBaseURLForTesting(baseURL string) {
	c.baseURL = baseURL
}

// Load runs once before the main loop. With no credentials set it enters
// Anonymous mode; otherwise it authenticates, retaining the PHPSESSID
// cookie in the shared client's jar for every subsequent request.
func (c *Crawler) Load(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		c.setState(Anonymous)
		return nil
	}

	c.setState(Authenticating)

	csrfToken, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return &domainfailure.CrawlerError{Reason: "failed to fetch CSES login page", Cause: err}
	}

	form := url.Values{
		"csrf_token": {csrfToken},
		"nick":       {c.username},
		"pass":       {c.password},
	}

	loginEndpoint := c.endpoint
	loginEndpoint.Client = transport.NoRedirect(c.toolkit.HTTPClient)
	loginEndpoint.RetryableStatus = func(status int) bool {
		return status != http.StatusFound && (status < 200 || status >= 300)
	}

	result, err := loginEndpoint.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return &domainfailure.CrawlerError{Reason: "CSES login request failed", Cause: err}
	}
	if result.StatusCode != http.StatusFound {
		return &domainfailure.CrawlerError{Reason: fmt.Sprintf("CSES login failed with status %d", result.StatusCode)}
	}

	c.setState(Authenticated)
	return nil
}

func (c *Crawler) fetchCSRFToken(ctx context.Context) (string, error) {
	getEndpoint := c.endpoint
	getEndpoint.RetryableStatus = func(status int) bool { return status < 200 || status >= 300 }

	result, err := getEndpoint.Do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/login", nil)
	})
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
	if err != nil {
		return "", err
	}

	token, exists := doc.Find(`input[name="csrf_token"]`).Attr("value")
	if !exists {
		return "", fmt.Errorf("csrf_token input not found on login page")
	}
	return token, nil
}

func (c *Crawler) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Crawler) currentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Crawler) rememberHandle(integrationID, handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[integrationID] = handle
}

func (c *Crawler) handleFor(integrationID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.handles[integrationID]
	return h, ok
}

func (c *Crawler) Discover(ctx context.Context, integration model.Integration, ch chan<- model.CrawledSubmission) error {
	defer close(ch)

	if integration.CSES == nil {
		return &domainfailure.CrawlerError{IntegrationID: integration.ID, Reason: "integration is not a cses integration"}
	}
	userNumber := integration.CSES.UserNumber
	c.rememberHandle(integration.ID, integration.CSES.Handle)

	result, err := c.endpoint.Do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/problemset/user/%d/", c.baseURL, userNumber), nil)
	})
	if err != nil {
		return err
	}
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		return &domainfailure.TransportError{StatusCode: result.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
	if err != nil {
		return &domainfailure.CrawlerError{IntegrationID: integration.ID, Reason: "unparseable CSES user page", Cause: err}
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return &domainfailure.CrawlerError{IntegrationID: integration.ID, Reason: "user does not exist"}
	}

	var sendErr error
	table.Find("a.full, a.zero").Each(func(_ int, a *goquery.Selection) {
		if sendErr != nil {
			return
		}
		href, exists := a.Attr("href")
		if !exists {
			return
		}

		problemURL := c.baseURL + strings.TrimSuffix(href, "/")
		verdict := model.Rejected
		if a.HasClass("full") {
			verdict = model.Accepted
		}

		crawled := model.CrawledSubmission{
			IntegrationID: integration.ID,
			Problem:       model.NewProblem(problemURL),
			Verdict:       verdict,
		}

		select {
		case ch <- crawled:
		case <-ctx.Done():
			sendErr = ctx.Err()
		}
	})

	return sendErr
}

// Finalize locates the user's own accepted source via the hack list.
// Rejected submissions bypass this entirely: CSES never lists a hack
// entry for a non-accepted attempt.
func (c *Crawler) Finalize(ctx context.Context, crawled model.CrawledSubmission) (model.Submission, error) {
	id, err := crawled.ID()
	if err != nil {
		return model.Submission{}, err
	}
	submission := model.FromCrawled(crawled, id, time.Time{})

	if crawled.Verdict != model.Accepted {
		return submission, nil
	}
	if c.currentState() != Authenticated {
		// Anonymous/degraded mode: enrichment is a no-op, not an error.
		return submission, nil
	}

	taskID := lastPathSegment(crawled.Problem.URL)

	result, err := c.endpoint.Do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/problemset/hack/%s/list/", c.baseURL, taskID), nil)
	})
	if err != nil {
		return model.Submission{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
	if err != nil {
		return model.Submission{}, &domainfailure.CrawlerError{IntegrationID: crawled.IntegrationID, Reason: "unparseable hack list page", Cause: err}
	}

	content := doc.Find("div.content").First()
	table := content.Find("table").First()
	if table.Length() == 0 {
		if content.Find(`a[href="/logout"]`).Length() == 0 {
			c.recorder.Errored(ctx, metadata.CauseSessionExpired, fmt.Errorf("cses session appears to have expired"))
		}
		return submission, nil
	}

	handle, ok := c.handleFor(crawled.IntegrationID)
	if !ok {
		// Finalize called without a prior Discover for this integration
		// (shouldn't happen via the Manager, but fail safe): no handle
		// to match against, so the crawled record is returned as-is.
		return submission, nil
	}
	var matchedURL string
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true // header row
		}

		username := strings.TrimSpace(cells.Eq(1).Text())
		if !strings.EqualFold(username, handle) {
			return true
		}

		link := row.Find("a").Last()
		href, exists := link.Attr("href")
		if !exists {
			return true
		}
		matchedURL = c.baseURL + href
		return false
	})

	if matchedURL == "" {
		// The submission has rotated out of the visible hack list.
		return submission, nil
	}

	submissionResult, err := c.endpoint.Do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, matchedURL, nil)
	})
	if err != nil {
		return model.Submission{}, err
	}

	submittedAt, sourceText, err := parseHackSubmissionPage(submissionResult.Body)
	if err != nil {
		return model.Submission{}, &domainfailure.CrawlerError{IntegrationID: crawled.IntegrationID, Reason: "unparseable hack submission page", Cause: err}
	}

	submission.SubmissionURL = &matchedURL
	submission.SubmittedAt = &submittedAt

	uploadedURL, err := c.toolkit.Uploader.Upload(ctx, sourceText)
	if err != nil {
		c.recorder.Errored(ctx, metadata.CauseUploadFailed, err)
		return submission, nil
	}
	submission.RawCodeURL = &uploadedURL

	return submission, nil
}

var hackPageDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

const hackPageDateLayout = "2006-01-02 15:04:05"

// parseHackSubmissionPage locates the submission timestamp and the source
// code block. The hack submission page never labels the timestamp's
// timezone: it is parsed in the process's local timezone (time.Local) and
// converted to UTC, so the result is correct only when the process runs
// in the judge's timezone.
func parseHackSubmissionPage(body []byte) (time.Time, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return time.Time{}, "", err
	}

	content := doc.Find("div.content").First()

	var submittedAt time.Time
	var found bool
	content.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		text := strings.TrimSpace(td.Text())
		if !hackPageDateRe.MatchString(text) {
			return true
		}
		parsed, err := time.ParseInLocation(hackPageDateLayout, text, time.Local)
		if err != nil {
			return true
		}
		submittedAt = parsed.UTC()
		found = true
		return false
	})
	if !found {
		return time.Time{}, "", fmt.Errorf("no timestamp found on hack submission page")
	}

	source := content.Find("pre.prettyprint").First()
	if source.Length() == 0 {
		return time.Time{}, "", fmt.Errorf("no source block found on hack submission page")
	}

	return submittedAt, source.Text(), nil
}

func lastPathSegment(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx == -1 {
		return trimmed
	}
	return trimmed[idx+1:]
}
