// Package errs holds the sentinel errors shared across domain packages. The
// HTTP layer maps each one to a status and an error code.
package errs

import "errors"

// Lookup and persistence.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrAlreadyExists          = errors.New("resource already exists")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// Input validation. ErrInvalidReference marks an identifier that is not a
// well-formed ObjectID; ErrInvalidEnum a value outside its fixed set.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidEnum      = errors.New("value is not one of the allowed values")

	// ErrNoChanges rejects an update that changes nothing.
	ErrNoChanges = errors.New("no changes")
)

// Access control.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
