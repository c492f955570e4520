// Package identity computes content-addressed ids over canonical token
// tuples. Absent optional fields contribute NullToken rather than being
// omitted, so two tuples that differ only in whether a field is present
// do not collide, unless the present value is itself the text "None".
package identity

import (
	"strings"
	"time"

	"github.com/cccrawl/crawler/pkg/hashutil"
)

// NullToken stands in for an absent optional field in a hashed tuple.
const NullToken = "None"

// tokenSeparator is a control character unlikely to appear in any token
// (handles, URLs, platform names), so joining never produces ambiguous
// collisions between e.g. ("a", "bc") and ("ab", "c").
const tokenSeparator = "\x1f"

// Hash returns the content-addressed id of tokens, in order.
func Hash(tokens ...string) (string, error) {
	return hashutil.HashBytes([]byte(strings.Join(tokens, tokenSeparator)), hashutil.HashAlgoBLAKE3)
}

// OptionalToken renders an optional string field for hashing: NullToken
// when absent, the value itself otherwise.
func OptionalToken(v *string) string {
	if v == nil {
		return NullToken
	}
	return *v
}

// OptionalTimeToken renders an optional UTC timestamp for hashing.
func OptionalTimeToken(t *time.Time) string {
	if t == nil {
		return NullToken
	}
	return t.UTC().Format(time.RFC3339)
}
