// Package paste uploads submission source code to a public paste service
// and returns a durable URL.
package paste

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	domainfailure "github.com/cccrawl/crawler/internal/failure"
)

// Uploader posts text and returns a durable URL, or a *domainfailure.FileUploadError
// on any non-success response.
type Uploader interface {
	Upload(ctx context.Context, text string) (string, error)
}

// IttyUploader implements Uploader against itty.sh.
type IttyUploader struct {
	client     *http.Client
	baseURL    string
	ttlSeconds int
	keyLength  int
}

// Config configures an IttyUploader's key length and time-to-live, per
// the paste uploader's TTL and generated-key length.
type Config struct {
	TTLSeconds int
	KeyLength  int
}

func NewIttyUploader(client *http.Client, cfg Config) *IttyUploader {
	return &IttyUploader{
		client:     client,
		baseURL:    "https://ity.sh/",
		ttlSeconds: cfg.TTLSeconds,
		keyLength:  cfg.KeyLength,
	}
}

// SetBaseURLForTesting points the uploader at a local httptest.Server
// instead of ity.sh. Exported so tests outside this package can use it.
func (u *IttyUploader) SetBaseURLForTesting(baseURL string) {
	u.baseURL = baseURL
}

type ittyResponse struct {
	URL string `json:"url"`
}

func (u *IttyUploader) Upload(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(text)
	if err != nil {
		return "", &domainfailure.FileUploadError{Cause: err}
	}

	url := fmt.Sprintf("%s?ttl=%d&length=%d", u.baseURL, u.ttlSeconds, u.keyLength)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &domainfailure.FileUploadError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", &domainfailure.FileUploadError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domainfailure.FileUploadError{StatusCode: resp.StatusCode}
	}

	var parsed ittyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &domainfailure.FileUploadError{StatusCode: resp.StatusCode, Cause: err}
	}
	if parsed.URL == "" {
		return "", &domainfailure.FileUploadError{StatusCode: resp.StatusCode, Cause: fmt.Errorf("paste response missing url field")}
	}

	return parsed.URL, nil
}
