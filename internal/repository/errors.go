// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow handlers to distinguish failure
// scenarios: ErrNotFound maps to 404, ErrInvalidTransition signals that a
// status change was attempted on a donation that is no longer in the
// expected prior state and maps to 409, ErrForbidden maps to 403.
package repository

import "errors"

// ErrNotFound is returned when the referenced record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a conditional status update matched
// no row because the donation exists but is not in the expected prior state.
// Two concurrent dispatches of the same donation resolve this way: exactly
// one wins, the other gets this error and must not broadcast.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrForbidden is returned when the caller attempts an operation their role
// does not permit.
var ErrForbidden = errors.New("forbidden")

// ErrUsernameExists is returned when creating a user with a taken username.
var ErrUsernameExists = errors.New("username already exists")
