// Package failure holds the domain error kinds of the crawler, layered
// on top of pkg/failure's ClassifiedError spine.
package failure

import (
	"fmt"

	"github.com/cccrawl/crawler/pkg/failure"
)

// CrawlerError is raised by a PlatformCrawler for conditions implying the
// integration itself is misconfigured (unknown handle, unknown user,
// failed login) or that the judge's page schema no longer matches what
// the crawler expects. It is always fatal for the current pass: the
// Manager logs it and does not update last_fetch.
type CrawlerError struct {
	IntegrationID string
	Reason        string
	Cause         error
}

func (e *CrawlerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("crawler error for integration %s: %s: %v", e.IntegrationID, e.Reason, e.Cause)
	}
	return fmt.Sprintf("crawler error for integration %s: %s", e.IntegrationID, e.Reason)
}

func (e *CrawlerError) Unwrap() error {
	return e.Cause
}

func (e *CrawlerError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// FileUploadError is returned by the paste uploader on any non-success
// response. The crawler treats it as recoverable: finalization still
// returns a valid Submission, just without a raw_code_url.
type FileUploadError struct {
	StatusCode int
	Cause      error
}

func (e *FileUploadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("paste upload failed (status %d): %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("paste upload failed (status %d)", e.StatusCode)
}

func (e *FileUploadError) Unwrap() error {
	return e.Cause
}

func (e *FileUploadError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// StoreError wraps a document-database fault. The Manager treats any
// StoreError for a given integration as fatal for that integration's
// current pass: it logs and proceeds to the next integration.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func (e *StoreError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// TransportError wraps a connection failure or non-success HTTP status
// surfaced by the underlying client, after the backoff wrapper's retries
// are exhausted. Recoverable: the next pass retries naturally since
// last_fetch is left untouched.
type TransportError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error fetching %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func (e *TransportError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
