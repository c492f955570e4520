package metadata_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cccrawl/crawler/internal/metadata"
	"github.com/stretchr/testify/assert"
)

type fakeSink struct {
	fetches      []metadata.FetchEvent
	passStarts   int
	passComplete int
	errors       []error
}

func (f *fakeSink) RecordFetch(ctx context.Context, event metadata.FetchEvent) {
	f.fetches = append(f.fetches, event)
}

func (f *fakeSink) RecordPassStart(ctx context.Context, integrationID, plat string) {
	f.passStarts++
}

func (f *fakeSink) RecordPassComplete(ctx context.Context, integrationID, plat string, finalized int) {
	f.passComplete++
}

func (f *fakeSink) RecordError(ctx context.Context, cause metadata.ErrorCause, err error, attrs ...metadata.Attribute) {
	f.errors = append(f.errors, err)
}

func TestRecorder_DelegatesToSink(t *testing.T) {
	sink := &fakeSink{}
	r := metadata.NewRecorder(sink)
	ctx := context.Background()

	r.PassStarted(ctx, "integration-1", "codeforces")
	r.FetchAttempted(ctx, metadata.FetchEvent{URL: "https://codeforces.com", StatusCode: 200})
	r.Errored(ctx, metadata.CauseTransport, errors.New("boom"))
	r.PassCompleted(ctx, "integration-1", "codeforces", 2)

	assert.Equal(t, 1, sink.passStarts)
	assert.Len(t, sink.fetches, 1)
	assert.Len(t, sink.errors, 1)
	assert.Equal(t, 1, sink.passComplete)
}
