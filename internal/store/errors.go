package store

import "errors"

var (
	// ErrNotFound reports a lookup by unknown id. Callers treat it as a
	// data-integrity fault, not a user-recoverable condition.
	ErrNotFound = errors.New("not found")
	// ErrForbidden reports an operation the acting user's role does not allow.
	ErrForbidden = errors.New("forbidden")
	// ErrLocked reports that another process holds the data lock.
	ErrLocked = errors.New("data directory is locked by another process")
)
