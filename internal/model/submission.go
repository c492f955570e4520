package model

import (
	"time"

	"github.com/cccrawl/crawler/internal/identity"
)

// CrawledSubmission is the output of discovery: a cheap, possibly
// incomplete record of a submission event. Its id is the stable
// submission id carried through finalization unchanged.
type CrawledSubmission struct {
	IntegrationID string
	Problem       Problem
	Verdict       Verdict
	SubmittedAt   *time.Time
	SubmissionURL *string
}

// ID hashes (integration.id, problem.id, verdict, submitted_at,
// submission_url). Absent optional fields contribute their null token so
// presence is part of identity: two submissions differing only in
// whether a timestamp is known never collide.
func (c CrawledSubmission) ID() (string, error) {
	problemID, err := c.Problem.ID()
	if err != nil {
		return "", err
	}

	return identity.Hash(
		c.IntegrationID,
		problemID,
		string(c.Verdict),
		identity.OptionalTimeToken(c.SubmittedAt),
		identity.OptionalToken(c.SubmissionURL),
	)
}

// Submission is a CrawledSubmission enriched by finalization. Its id
// equals the underlying CrawledSubmission's id; FirstSeenAt is stamped
// once by the caller on first insert and must never change across
// subsequent upserts of the same id.
type Submission struct {
	ID            string     `bson:"id"`
	IntegrationID string     `bson:"integration_id"`
	Problem       Problem    `bson:"problem"`
	Verdict       Verdict    `bson:"verdict"`
	SubmittedAt   *time.Time `bson:"submitted_at,omitempty"`
	SubmissionURL *string    `bson:"submission_url,omitempty"`
	FirstSeenAt   time.Time  `bson:"first_seen_at"`
	RawCodeURL    *string    `bson:"raw_code_url,omitempty"`
}

// FromCrawled builds a Submission from a CrawledSubmission, its already
// computed id, and the first_seen_at value the caller is preserving
// (either now, on first insert, or the previously stored value on a
// re-upsert). raw_code_url is left nil; callers set it after a
// successful paste upload.
func FromCrawled(crawled CrawledSubmission, id string, firstSeenAt time.Time) Submission {
	return Submission{
		ID:            id,
		IntegrationID: crawled.IntegrationID,
		Problem:       crawled.Problem,
		Verdict:       crawled.Verdict,
		SubmittedAt:   crawled.SubmittedAt,
		SubmissionURL: crawled.SubmissionURL,
		FirstSeenAt:   firstSeenAt,
	}
}
