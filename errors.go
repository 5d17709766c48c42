package ridepool

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidTransition = "INVALID_VIEW_STATE_TRANSITION"
	textCodeOperationPending  = "OPERATION_PENDING"
	textCodeIncompleteSession = "INCOMPLETE_SESSION"
	textCodeProfileNotFound   = "PROFILE_NOT_FOUND"
	textCodeInvalidDraft      = "INVALID_FORM_DRAFT"
)

// ErrNoSession is returned by identity clients when no session is active.
// It is expected control flow during startup, not a fault.
var ErrNoSession = errors.New("no active session")

// ErrInvalidTransition is returned when an operation is invoked from a view
// state it is not valid in.
var ErrInvalidTransition = goerrors.New("invalid view state transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeConflict)

// ErrOperationPending is returned when a profile mutation is requested while
// another one is still in flight.
var ErrOperationPending = goerrors.New("another operation is in flight", goerrors.CategoryConflict).
	WithTextCode(textCodeOperationPending).
	WithCode(goerrors.CodeConflict)

// ErrIncompleteSession is returned when a session exists but lacks the email
// claim the profile resource is keyed by. The flow cannot proceed; callers
// should surface the error and offer sign-out.
var ErrIncompleteSession = goerrors.New("session is missing the email claim", goerrors.CategoryAuth).
	WithTextCode(textCodeIncompleteSession).
	WithCode(goerrors.CodeUnauthorized)

// ErrProfileNotFound is returned by profile services when no profile is
// stored for the identifier. During session evaluation it is a valid data
// outcome (the user still needs to register), not a failure.
var ErrProfileNotFound = goerrors.New("profile not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeProfileNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidDraft wraps form validation failures. It blocks submission before
// any network call is issued.
var ErrInvalidDraft = goerrors.New("invalid form draft", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidDraft).
	WithCode(goerrors.CodeBadRequest)

// IsProfileNotFound reports whether err represents the not-found data outcome.
func IsProfileNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrProfileNotFound) || goerrors.IsNotFound(err)
}
