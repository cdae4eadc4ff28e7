package core

import "time"

// OutcomeKind identifies the terminal classification of one chat dispatch.
// The set is closed: every dispatch attempt maps to exactly one kind.
type OutcomeKind string

const (
	OutcomeSuccess           OutcomeKind = "success"
	OutcomeRateLimited       OutcomeKind = "rate_limited"
	OutcomeQuotaExceeded     OutcomeKind = "quota_exceeded"
	OutcomeTransientFailure  OutcomeKind = "transient_failure"
	OutcomeMalformedResponse OutcomeKind = "malformed_response"
)

// Outcome is the structured result of a dispatch attempt. Text is always
// non-empty: the generated answer on success, a fixed fallback otherwise.
// RetryAfter is populated for rate_limited and quota_exceeded outcomes.
type Outcome struct {
	Kind       OutcomeKind   `json:"kind"`
	Text       string        `json:"text"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// RetryAfterSeconds reports RetryAfter rounded up to whole seconds, for
// Retry-After headers and user-facing retry hints.
func (o Outcome) RetryAfterSeconds() int {
	if o.RetryAfter <= 0 {
		return 0
	}
	return int((o.RetryAfter + time.Second - 1) / time.Second)
}

// Exchange is the immutable record of one completed chat turn handed to the
// persistence sink. It is created once per dispatch that reached the
// provider path and never mutated afterwards.
type Exchange struct {
	ID        string      `json:"id"`
	Key       string      `json:"key"`
	Prompt    string      `json:"prompt"`
	Response  string      `json:"response"`
	Outcome   OutcomeKind `json:"outcome"`
	CreatedAt time.Time   `json:"created_at"`
}
