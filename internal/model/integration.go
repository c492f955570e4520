package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cccrawl/crawler/internal/identity"
	"github.com/cccrawl/crawler/internal/platform"
)

// CodeforcesFields holds the platform-specific fields of a Codeforces
// integration.
type CodeforcesFields struct {
	Handle string `bson:"handle"`
}

// CSESFields holds the platform-specific fields of a CSES integration.
type CSESFields struct {
	UserNumber int    `bson:"user_number"`
	Handle     string `bson:"handle"`
}

// Integration is a tagged union over the supported platforms,
// discriminated by Platform, matching the way the store serializes
// heterogeneous integrations into one collection. Exactly one of
// Codeforces or CSES is populated, selected by Platform.
type Integration struct {
	ID         string            `bson:"id"`
	Platform   platform.Platform `bson:"platform"`
	LastFetch  *time.Time        `bson:"last_fetch,omitempty"`
	Codeforces *CodeforcesFields `bson:"codeforces,omitempty"`
	CSES       *CSESFields       `bson:"cses,omitempty"`
}

// NewCodeforcesIntegration validates handle (3-30 chars, lowercased) and
// computes its id from (platform, handle).
func NewCodeforcesIntegration(handle string) (Integration, error) {
	if len(handle) < 3 || len(handle) > 30 {
		return Integration{}, fmt.Errorf("codeforces handle must be 3-30 characters, got %q", handle)
	}
	lowered := strings.ToLower(handle)

	id, err := identity.Hash(string(platform.Codeforces), lowered)
	if err != nil {
		return Integration{}, err
	}

	return Integration{
		ID:         id,
		Platform:   platform.Codeforces,
		Codeforces: &CodeforcesFields{Handle: lowered},
	}, nil
}

// NewCSESIntegration validates user_number (1..10_000_000) and handle
// (1-16 chars, trimmed), and computes its id from (platform, user_number).
func NewCSESIntegration(userNumber int, handle string) (Integration, error) {
	if userNumber < 1 || userNumber > 10_000_000 {
		return Integration{}, fmt.Errorf("cses user_number must be in [1, 10000000], got %d", userNumber)
	}
	trimmed := strings.TrimSpace(handle)
	if len(trimmed) < 1 || len(trimmed) > 16 {
		return Integration{}, fmt.Errorf("cses handle must be 1-16 characters, got %q", handle)
	}

	id, err := identity.Hash(string(platform.CSES), strconv.Itoa(userNumber))
	if err != nil {
		return Integration{}, err
	}

	return Integration{
		ID:       id,
		Platform: platform.CSES,
		CSES:     &CSESFields{UserNumber: userNumber, Handle: trimmed},
	}, nil
}
