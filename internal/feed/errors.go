package feed

import "fmt"

// Kind labels the failure category of a fetch attempt.
type Kind string

const (
	// KindTimeout means the request exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindUnreachable means the connection failed before a response arrived.
	KindUnreachable Kind = "unreachable"
	// KindMalformed means the response body could not be parsed as a feed.
	KindMalformed Kind = "malformed"
	// KindHTTPStatus means the server answered with a non-OK status code.
	KindHTTPStatus Kind = "http_status"
)

// Error describes a failed fetch. Callers branch on Kind via errors.As.
type Error struct {
	Kind   Kind
	Status int
	cause  error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("feed: unexpected status %d", e.Status)
	}
	if e.cause != nil {
		return fmt.Sprintf("feed: %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("feed: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }
