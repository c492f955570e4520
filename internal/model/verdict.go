package model

// Verdict is deliberately coarse: CSES never surfaces anything finer than
// solved/attempted, so the domain model doesn't either.
type Verdict string

const (
	Accepted Verdict = "accepted"
	Rejected Verdict = "rejected"
)

func VerdictFromCodeforces(cfVerdict string) Verdict {
	if cfVerdict == "OK" {
		return Accepted
	}
	return Rejected
}
