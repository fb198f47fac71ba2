// Package repository defines the persistence contract of the booking
// service together with its MySQL implementation.  The sentinel errors
// below are shared by every adapter (see also package memstore) so that
// higher layers can distinguish failure scenarios without knowing which
// store is configured.
package repository

import "errors"

// ErrEventNotFound is returned when no event matches the given id.
var ErrEventNotFound = errors.New("event not found")

// ErrRegistrationNotFound is returned when the user holds no
// registration on the event.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrUserNotFound is returned when no user matches the given id or email.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when a user with the same email exists.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a conditional write lost a race: the
// seat counter no longer satisfied its floor/ceiling check, or a
// concurrent booking created the same (event, user) row first.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNoChange indicates the UPDATE attempted to set fields equal to current values.
var ErrNoChange = errors.New("no change")

// ErrInvalidToken is returned for unknown, expired or revoked refresh tokens.
var ErrInvalidToken = errors.New("invalid refresh token")
