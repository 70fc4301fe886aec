package store

import "errors"

// Sentinel errors for repository lookups.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoActiveDocument is returned when a source URL has no active version.
	ErrNoActiveDocument = errors.New("no active document for source url")
)
