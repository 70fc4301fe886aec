package fetcher

import (
	"errors"
	"fmt"
)

// FailureKind classifies fetch failures for callers that count them.
type FailureKind string

const (
	// FailureNetwork covers transport errors and timeouts.
	FailureNetwork FailureKind = "network"
	// FailureStatus covers non-success HTTP status codes.
	FailureStatus FailureKind = "status"
	// FailureEmptyBody covers empty or near-empty response bodies.
	FailureEmptyBody FailureKind = "empty_body"
)

// FetchError is a tagged fetch failure. It is always returned as a value;
// no failure escapes the fetcher as a panic.
type FetchError struct {
	Kind       FailureKind
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == FailureStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap returns the underlying cause, if any.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError unwraps err into a *FetchError if possible.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	ok := errors.As(err, &fe)
	return fe, ok
}
