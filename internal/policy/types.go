package policy

import "time"

const (
	// ForbiddenNameSubstring may never appear in a user's name.
	ForbiddenNameSubstring = "환영"

	// DeleteEmbargo is the minimum record age before deletion is allowed.
	DeleteEmbargo = 60 * time.Second
)

// DeleteDecision is the result of a deletion eligibility check.
type DeleteDecision struct {
	Allowed bool
	// RemainingSeconds is the wait before deletion becomes possible.
	// Always >= 1 when Allowed is false, zero otherwise.
	RemainingSeconds int
}
