package domain

import (
	"errors"
	"fmt"
)

// ErrRateLimited marks a translation provider that signalled quota
// exhaustion; the chain treats it like any other provider failure.
var ErrRateLimited = errors.New("provider rate limited")

// ErrInvalidPayload marks a relay response too short or too malformed to be
// worth parsing.
var ErrInvalidPayload = errors.New("invalid payload")

// FetchExhaustedError is returned when every relay, every retry, and the
// final direct attempt failed for one source. It never aborts sibling
// fetches; the fan-out join converts it into a failure count.
type FetchExhaustedError struct {
	Source  string
	LastErr error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("source %s: all relays and direct fetch exhausted: %v", e.Source, e.LastErr)
}

func (e *FetchExhaustedError) Unwrap() error {
	return e.LastErr
}
