package policy

import (
	"strings"
	"time"
)

// ValidateName reports whether name may be stored.
// Empty names and names containing ForbiddenNameSubstring fail closed.
// Matching is case-sensitive with no normalization.
func ValidateName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.Contains(name, ForbiddenNameSubstring)
}

// ValidateEmail reports whether email may be stored.
// Only the presence of '@' is checked.
func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}
	return strings.Contains(email, "@")
}

// CanDelete decides whether a record created at createdAt may be removed at now.
//
// A nil createdAt is treated as immediately deletable.
func CanDelete(createdAt *time.Time, now time.Time) DeleteDecision {
	if createdAt == nil {
		return DeleteDecision{Allowed: true}
	}

	embargoMs := DeleteEmbargo.Milliseconds()
	elapsedMs := now.Sub(*createdAt).Milliseconds()
	if elapsedMs >= embargoMs {
		return DeleteDecision{Allowed: true}
	}

	remainingMs := embargoMs - elapsedMs
	seconds := int((remainingMs + 999) / 1000)
	if seconds < 1 {
		seconds = 1
	}
	return DeleteDecision{Allowed: false, RemainingSeconds: seconds}
}
