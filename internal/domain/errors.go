package domain

import "errors"

// Sentinel errors - use with errors.Is()
var (
	// ErrNotFound indicates the record does not exist or is not owned by the
	// caller. Ownership mismatches surface as ErrNotFound on purpose so that
	// existence is never leaked across users.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a malformed record (missing id, bad parent
	// reference, self-reference). Scoped to the offending record during
	// sync, never fatal for the whole batch.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a missing or invalid bearer credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable indicates the persistence layer cannot be reached.
	// The only fatal condition for a sync request; the client retries with
	// the same watermark.
	ErrUnavailable = errors.New("store unavailable")
)
