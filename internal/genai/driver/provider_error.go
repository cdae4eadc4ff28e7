package driver

import (
	"fmt"
	"time"
)

// ProviderError is returned when a provider responds with a non-2xx status
// or the transport fails before a status is known.
//
// Drivers should populate RawResponse with the provider response body bytes.
// RawResponse must never include API keys. RetryAfter carries the provider's
// Retry-After hint when one was sent.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RetryAfter  time.Duration
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// MalformedError is returned when a provider answers with a success status
// but the body is missing the expected generated-text field or cannot be
// decoded. It is distinct from ProviderError so callers can classify the two
// cases separately.
type MalformedError struct {
	Provider string
	Detail   string
}

func (e *MalformedError) Error() string {
	if e == nil {
		return "malformed provider response"
	}
	return fmt.Sprintf("%s returned a malformed response: %s", e.Provider, e.Detail)
}
