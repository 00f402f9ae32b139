// Package errors provides common domain error types for the facil application.
//
// This package defines sentinel errors for common domain conditions like "not found"
// or "invalid state" that can be used across all packages. Using typed errors enables
// consistent error handling patterns with errors.Is() checks.
//
// Usage:
//
//	import fcerrors "github.com/facilita/facil-cli/pkg/errors"
//
//	// Return a domain error
//	return nil, fcerrors.ErrNotFound
//
//	// Check for domain errors
//	if fcerrors.IsNotFound(err) {
//	    // handle not found case
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested document was not found in the store.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrAlreadyExists indicates the document already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState indicates the operation is not valid for the current
	// session state (e.g. pausing a session that never started).
	ErrInvalidState = errors.New("invalid state")

	// ErrStreamClosed indicates the transcription stream was deliberately
	// closed and will not reconnect.
	ErrStreamClosed = errors.New("stream closed")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsAlreadyExists reports whether any error in err's chain is ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsStreamClosed reports whether any error in err's chain is ErrStreamClosed.
func IsStreamClosed(err error) bool {
	return errors.Is(err, ErrStreamClosed)
}
