package store

import "errors"

var (
	// ErrStoreUnavailable wraps any connection or query failure against the
	// backing datastore.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEmptyContent rejects a send whose content is empty or whitespace.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrNotFound reports a missing row on point lookups.
	ErrNotFound = errors.New("not found")
)
