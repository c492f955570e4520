// Package store abstracts the document database C8 drives: an infinite,
// fair cycle over integrations, upserts for integrations and submissions,
// and lookup of previously recorded submission ids.
package store

import (
	"context"

	"github.com/cccrawl/crawler/internal/model"
)

// Store is the document-database abstraction the Manager drives. All
// operations return *domainfailure.StoreError (see internal/failure) on
// any transport or service fault.
type Store interface {
	// Integrations returns a channel that enumerates every currently
	// present integration, then wraps around and does so again,
	// forever — closed only when ctx is cancelled. Each full lap is a
	// "pass boundary": integrations added between laps appear no later
	// than the next one.
	Integrations(ctx context.Context) (<-chan model.Integration, <-chan error)

	// UpsertIntegration inserts or replaces an integration by its id.
	UpsertIntegration(ctx context.Context, integration model.Integration) error

	// UpsertSubmission inserts or replaces a submission by its id. The
	// caller (the Manager) is responsible for preserving FirstSeenAt
	// across re-upserts; the store just writes what it's given.
	UpsertSubmission(ctx context.Context, submission model.Submission) error

	// CollectedSubmissionIDs returns every submission id previously
	// recorded under integration id.
	CollectedSubmissionIDs(ctx context.Context, integrationID string) ([]string, error)

	// FindSubmission looks up a previously stored submission by id. The
	// Manager uses this to preserve first_seen_at across re-upserts; ok
	// is false when no submission with that id has been recorded yet.
	FindSubmission(ctx context.Context, id string) (submission model.Submission, ok bool, err error)

	// UpsertUserConfig inserts or replaces a UserConfig by its uid. Only
	// used at registration; the crawl loop never calls this.
	UpsertUserConfig(ctx context.Context, config model.UserConfig) error
}
