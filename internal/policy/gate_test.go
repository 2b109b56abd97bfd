package policy

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "plain korean name", input: "철수", expected: true},
		{name: "plain latin name", input: "Alice", expected: true},
		{name: "empty", input: "", expected: false},
		{name: "forbidden word only", input: "환영", expected: false},
		{name: "forbidden word as prefix", input: "환영합니다", expected: false},
		{name: "forbidden word in the middle", input: "철수환영영희", expected: false},
		{name: "partial forbidden word", input: "환", expected: true},
		{name: "whitespace only", input: "   ", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateName(tt.input))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "regular address", input: "a@b.com", expected: true},
		{name: "bare at sign", input: "@", expected: true},
		{name: "multiple at signs", input: "a@@b", expected: true},
		{name: "no at sign", input: "no-at-sign", expected: false},
		{name: "fullwidth at sign", input: "a＠b.com", expected: false},
		{name: "empty", input: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateEmail(tt.input))
		})
	}
}

func TestValidators_Idempotent(t *testing.T) {
	for _, input := range []string{"철수", "환영합니다", "a@b.com", "bad-email", ""} {
		assert.Equal(t, ValidateName(input), ValidateName(input), input)
		assert.Equal(t, ValidateEmail(input), ValidateEmail(input), input)
	}
}

func TestCanDelete(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		elapsed       time.Duration
		wantAllowed   bool
		wantRemaining int
	}{
		{name: "immediately after creation", elapsed: 0, wantAllowed: false, wantRemaining: 60},
		{name: "one millisecond in", elapsed: time.Millisecond, wantAllowed: false, wantRemaining: 60},
		{name: "half a minute", elapsed: 30 * time.Second, wantAllowed: false, wantRemaining: 30},
		{name: "rounds remaining up", elapsed: 30*time.Second + 500*time.Millisecond, wantAllowed: false, wantRemaining: 30},
		{name: "one millisecond left", elapsed: 59999 * time.Millisecond, wantAllowed: false, wantRemaining: 1},
		{name: "exactly one minute", elapsed: 60 * time.Second, wantAllowed: true},
		{name: "well past the embargo", elapsed: time.Hour, wantAllowed: true},
		{name: "clock behind creation", elapsed: -5 * time.Second, wantAllowed: false, wantRemaining: 65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanDelete(&created, created.Add(tt.elapsed))
			assert.Equal(t, tt.wantAllowed, decision.Allowed)
			assert.Equal(t, tt.wantRemaining, decision.RemainingSeconds)
		})
	}
}

func TestCanDelete_RemainingBounds(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for ms := int64(0); ms < DeleteEmbargo.Milliseconds(); ms += 997 {
		t.Run(fmt.Sprintf("elapsed_%dms", ms), func(t *testing.T) {
			decision := CanDelete(&created, created.Add(time.Duration(ms)*time.Millisecond))
			assert.False(t, decision.Allowed)
			expected := int((DeleteEmbargo.Milliseconds() - ms + 999) / 1000)
			assert.Equal(t, expected, decision.RemainingSeconds)
			assert.GreaterOrEqual(t, decision.RemainingSeconds, 1)
		})
	}
}

// Records without a creation time can be removed at once. This mirrors the
// behaviour of the data this service was migrated from and may be an oversight
// there; keep it visible until the store guarantees createdAt.
func TestCanDelete_MissingCreatedAtIsPermissive(t *testing.T) {
	decision := CanDelete(nil, time.Now())
	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.RemainingSeconds)
}
