package failure_test

import (
	"errors"
	"testing"

	domainfailure "github.com/cccrawl/crawler/internal/failure"
	"github.com/cccrawl/crawler/pkg/failure"
	"github.com/stretchr/testify/assert"
)

func TestCrawlerError_IsFatal(t *testing.T) {
	err := &domainfailure.CrawlerError{IntegrationID: "i", Reason: "unknown handle"}
	var classified failure.ClassifiedError = err
	assert.Equal(t, failure.SeverityFatal, classified.Severity())
	assert.Contains(t, err.Error(), "unknown handle")
}

func TestFileUploadError_IsRecoverable(t *testing.T) {
	err := &domainfailure.FileUploadError{StatusCode: 500}
	var classified failure.ClassifiedError = err
	assert.Equal(t, failure.SeverityRecoverable, classified.Severity())
}

func TestStoreError_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &domainfailure.StoreError{Op: "upsert_submission", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestTransportError_IsRecoverable(t *testing.T) {
	err := &domainfailure.TransportError{URL: "https://codeforces.com", StatusCode: 503}
	var classified failure.ClassifiedError = err
	assert.Equal(t, failure.SeverityRecoverable, classified.Severity())
}
