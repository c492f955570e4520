package model

import "github.com/cccrawl/crawler/internal/identity"

// Problem identifies a single judge problem by its canonical URL. Identity
// is the hash of that URL text alone.
type Problem struct {
	URL string `bson:"url"`
}

func NewProblem(url string) Problem {
	return Problem{URL: url}
}

func (p Problem) ID() (string, error) {
	return identity.Hash(p.URL)
}
