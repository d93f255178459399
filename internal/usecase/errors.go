package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is the feed's "match id not allocated yet" signal. It
	// drives scheduler state transitions and is never treated as a fault.
	ErrNotFound = errors.New("resource not found")

	// ErrTransientFetch covers network errors, timeouts and retryable
	// upstream statuses. The affected match id is retried next tick.
	ErrTransientFetch = errors.New("transient fetch failure")
)
