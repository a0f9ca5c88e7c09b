// Package errs defines the sentinel errors shared across the service layers.
// Handlers map these onto HTTP statuses; stores and the session layer wrap
// them with context via fmt.Errorf("...: %w", ...).
package errs

import "errors"

var (
	// ErrValidation marks input rejected before any write happened.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a record id that is absent from its collection.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks an action the current actor may not perform.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict marks a duplicate registration or a lost claim race.
	ErrConflict = errors.New("conflict")

	// ErrRemote marks a failed call to the external storefront API. Always
	// recoverable: callers roll back optimistic state and may retry.
	ErrRemote = errors.New("remote call failed")
)
