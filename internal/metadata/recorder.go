// Package metadata records structured events about crawl passes, fetches
// and uploads through a narrow sink interface, so call sites never format
// log strings themselves.
package metadata

import (
	"context"
	"log/slog"
)

// Sink receives recorded events. The only implementation in this repo is
// SlogSink; tests use a fake that just appends to a slice.
type Sink interface {
	RecordFetch(ctx context.Context, event FetchEvent)
	RecordPassStart(ctx context.Context, integrationID string, plat string)
	RecordPassComplete(ctx context.Context, integrationID string, plat string, finalized int)
	RecordError(ctx context.Context, cause ErrorCause, err error, attrs ...Attribute)
}

// Recorder wraps a Sink, a thin struct holding the sink plus whatever
// static context callers shouldn't have to repeat.
type Recorder struct {
	sink Sink
}

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) FetchAttempted(ctx context.Context, event FetchEvent) {
	r.sink.RecordFetch(ctx, event)
}

func (r *Recorder) PassStarted(ctx context.Context, integrationID, plat string) {
	r.sink.RecordPassStart(ctx, integrationID, plat)
}

func (r *Recorder) PassCompleted(ctx context.Context, integrationID, plat string, finalized int) {
	r.sink.RecordPassComplete(ctx, integrationID, plat, finalized)
}

func (r *Recorder) Errored(ctx context.Context, cause ErrorCause, err error, attrs ...Attribute) {
	r.sink.RecordError(ctx, cause, err, attrs...)
}

// SlogSink backs Sink with log/slog, the only structured-logging library
// either example repo in the retrieved corpus uses.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) RecordFetch(ctx context.Context, event FetchEvent) {
	s.logger.InfoContext(ctx, "fetch",
		string(AttrURL), event.URL,
		string(AttrStatusCode), event.StatusCode,
		string(AttrAttempt), event.Attempt,
		string(AttrDuration), event.Duration,
	)
}

func (s *SlogSink) RecordPassStart(ctx context.Context, integrationID, plat string) {
	s.logger.InfoContext(ctx, "pass started",
		string(AttrIntegrationID), integrationID,
		string(AttrPlatform), plat,
	)
}

func (s *SlogSink) RecordPassComplete(ctx context.Context, integrationID, plat string, finalized int) {
	s.logger.InfoContext(ctx, "pass completed",
		string(AttrIntegrationID), integrationID,
		string(AttrPlatform), plat,
		"finalized", finalized,
	)
}

func (s *SlogSink) RecordError(ctx context.Context, cause ErrorCause, err error, attrs ...Attribute) {
	args := make([]any, 0, 2+2*len(attrs))
	args = append(args, string(AttrCause), string(cause))
	for _, a := range attrs {
		args = append(args, string(a.Key), a.Value)
	}
	s.logger.ErrorContext(ctx, err.Error(), args...)
}
