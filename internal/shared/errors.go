package shared

import "errors"

// Error kinds shared across modules. Domain packages wrap these so the HTTP
// boundary can map them to responses with errors.Is.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates bad caller input; never retried.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness conflict, typically a duplicate
	// business key raced in by a concurrent writer.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated indicates the caller has no actor identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrStoreUnavailable indicates a transient store failure; retryable.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrPartialCommit indicates a multi-step persistence sequence stopped
	// midway. The committed steps are not rolled back; a subsequent retry is
	// made safe by business-key idempotency at the booking layer.
	ErrPartialCommit = errors.New("partial commit")
)
