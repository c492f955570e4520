package codeforces_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cccrawl/crawler/internal/crawler"
	"github.com/cccrawl/crawler/internal/crawler/codeforces"
	"github.com/cccrawl/crawler/internal/metadata"
	"github.com/cccrawl/crawler/internal/model"
	"github.com/cccrawl/crawler/internal/transport"
	"github.com/cccrawl/crawler/pkg/limiter"
	"github.com/cccrawl/crawler/pkg/retry"
	"github.com/cccrawl/crawler/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopSleeper struct{}

func (noopSleeper) Sleep(context.Context, time.Duration) error { return nil }

type recordingUploader struct {
	url string
	err error
}

func (u *recordingUploader) Upload(ctx context.Context, text string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

type discardSink struct{}

func (discardSink) RecordFetch(ctx context.Context, event metadata.FetchEvent)                     {}
func (discardSink) RecordPassStart(ctx context.Context, integrationID, plat string)                {}
func (discardSink) RecordPassComplete(ctx context.Context, integrationID, plat string, n int)       {}
func (discardSink) RecordError(ctx context.Context, cause metadata.ErrorCause, err error, a ...metadata.Attribute) {
}

func testEndpointFor(client *http.Client) transport.Endpoint {
	return transport.Endpoint{
		Client:  client,
		Limiter: limiter.New(limiter.Config{Calls: 1000, Window: time.Second}),
		RetryParam: retry.RetryParam{
			Backoff:      timeutil.BackoffParam{InitialDuration: time.Millisecond, Multiplier: 2, MaxDuration: 5 * time.Millisecond},
			WallClockCap: 50 * time.Millisecond,
			Sleeper:      noopSleeper{},
		},
	}
}

func newCrawlerAgainstSingleServer(t *testing.T, handler http.HandlerFunc, uploader *recordingUploader) (*codeforces.Crawler, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)

	toolkit := crawler.Toolkit{HTTPClient: server.Client(), Uploader: uploader}
	recorder := metadata.NewRecorder(discardSink{})
	c := codeforces.New(toolkit, testEndpointFor(server.Client()), testEndpointFor(server.Client()), recorder)

	return c, server
}

func TestDiscover_HappyPath(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"id":1,"verdict":"OK","creationTimeSeconds":1700000000,"problem":{"contestId":1234,"index":"A"}}]}`))
	}
	c, server := newCrawlerAgainstSingleServer(t, handler, &recordingUploader{url: "https://ity.sh/ABCDEFGH"})
	defer server.Close()

	integration, err := model.NewCodeforcesIntegration("tourist")
	require.NoError(t, err)

	ch := make(chan model.CrawledSubmission, 10)
	err = c.Discover(context.Background(), integration, ch)
	require.NoError(t, err)

	var submissions []model.CrawledSubmission
	for s := range ch {
		submissions = append(submissions, s)
	}
	require.Len(t, submissions, 1)

	s := submissions[0]
	assert.Equal(t, "https://codeforces.com/contest/1234/problem/A", s.Problem.URL)
	assert.Equal(t, model.Accepted, s.Verdict)
	assert.Equal(t, "https://codeforces.com/contest/1234/submission/1", *s.SubmissionURL)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), *s.SubmittedAt)
}

func TestDiscover_Gym(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"id":1,"verdict":"OK","creationTimeSeconds":1700000000,"problem":{"contestId":100500,"index":"A"}}]}`))
	}
	c, server := newCrawlerAgainstSingleServer(t, handler, &recordingUploader{})
	defer server.Close()

	integration, _ := model.NewCodeforcesIntegration("tourist")
	ch := make(chan model.CrawledSubmission, 10)
	require.NoError(t, c.Discover(context.Background(), integration, ch))

	s := <-ch
	assert.Contains(t, s.Problem.URL, "/gym/100500/problem/A")
}

func TestDiscover_MisconfiguredHandle(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}
	c, server := newCrawlerAgainstSingleServer(t, handler, &recordingUploader{})
	defer server.Close()

	integration, _ := model.NewCodeforcesIntegration("tourist")
	ch := make(chan model.CrawledSubmission, 10)
	err := c.Discover(context.Background(), integration, ch)

	require.Error(t, err)
}

func TestFinalize_PrivateSubmissionReturns302(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/somewhere", http.StatusFound)
	}
	c, server := newCrawlerAgainstSingleServer(t, handler, &recordingUploader{})
	defer server.Close()

	url := server.URL + "/contest/1/submission/1"
	crawled := model.CrawledSubmission{
		IntegrationID: "i",
		Problem:       model.NewProblem("https://codeforces.com/contest/1/problem/A"),
		Verdict:       model.Accepted,
		SubmissionURL: &url,
	}

	submission, err := c.Finalize(context.Background(), crawled)
	require.NoError(t, err)
	assert.Nil(t, submission.RawCodeURL)
}

func TestFinalize_HappyPathUploadsSource(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><pre id="program-source-text">int main(){}</pre></body></html>`))
	}
	c, server := newCrawlerAgainstSingleServer(t, handler, &recordingUploader{url: "https://ity.sh/ABCDEFGH"})
	defer server.Close()

	url := server.URL + "/contest/1/submission/1"
	crawled := model.CrawledSubmission{
		IntegrationID: "i",
		Problem:       model.NewProblem("https://codeforces.com/contest/1/problem/A"),
		Verdict:       model.Accepted,
		SubmissionURL: &url,
	}

	submission, err := c.Finalize(context.Background(), crawled)
	require.NoError(t, err)
	require.NotNil(t, submission.RawCodeURL)
	assert.Equal(t, "https://ity.sh/ABCDEFGH", *submission.RawCodeURL)
}

func TestFinalize_MissingSourceIsCrawlerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>no source here</body></html>`))
	}
	c, server := newCrawlerAgainstSingleServer(t, handler, &recordingUploader{})
	defer server.Close()

	url := server.URL + "/contest/1/submission/1"
	crawled := model.CrawledSubmission{
		IntegrationID: "i",
		Problem:       model.NewProblem("https://codeforces.com/contest/1/problem/A"),
		Verdict:       model.Accepted,
		SubmissionURL: &url,
	}

	_, err := c.Finalize(context.Background(), crawled)
	require.Error(t, err)
}
