package discord

import (
	"fmt"
	"time"
)

// Kind labels the failure category of a webhook delivery.
type Kind string

const (
	// KindUnreachable means the request never produced an HTTP response.
	KindUnreachable Kind = "unreachable"
	// KindRateLimited means Discord answered 429.
	KindRateLimited Kind = "rate_limited"
	// KindRejected means Discord answered with any other non-success status.
	KindRejected Kind = "rejected"
)

// Error describes a failed delivery. RetryAfter is only set for
// KindRateLimited and comes from the Retry-After response header.
type Error struct {
	Kind       Kind
	Status     int
	RetryAfter time.Duration
	cause      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return fmt.Sprintf("discord: rate limited, retry after %s", e.RetryAfter)
	case KindRejected:
		if e.cause != nil {
			return fmt.Sprintf("discord: webhook rejected with status %d: %v", e.Status, e.cause)
		}
		return fmt.Sprintf("discord: webhook rejected with status %d", e.Status)
	default:
		if e.cause != nil {
			return fmt.Sprintf("discord: %s: %v", e.Kind, e.cause)
		}
		return fmt.Sprintf("discord: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.cause }
