package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/events-booking/internal/repository"
)

// ErrRegistrationDenied is matched by every *DeniedError.
var ErrRegistrationDenied = errors.New("registration denied")

// ErrInvalidInput is returned when a request fails field validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidStatus is returned when a status cannot be set through the
// admin action.
var ErrInvalidStatus = errors.New("invalid status")

// ErrInvalidCredentials is returned by Login for an unknown email or a
// wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// DenialReason names the registration check that failed.
type DenialReason string

const (
	ReasonEventNotFound      DenialReason = "EventNotFound"
	ReasonEventNotOpen       DenialReason = "EventNotOpen"
	ReasonRoleNotPermitted   DenialReason = "RoleNotPermitted"
	ReasonInsufficientSeats  DenialReason = "InsufficientSeats"
	ReasonPerUserCapExceeded DenialReason = "PerUserCapExceeded"
	ReasonInvalidSeatCount   DenialReason = "InvalidSeatCount"
)

// DeniedError reports which registration check rejected a request.
type DeniedError struct {
	Reason DenialReason
}

func (e *DeniedError) Error() string { return "registration denied: " + string(e.Reason) }

// Is lets errors.Is(err, ErrRegistrationDenied) match any denial.
func (e *DeniedError) Is(target error) bool { return target == ErrRegistrationDenied }

func deny(r DenialReason) error { return &DeniedError{Reason: r} }

// TransportError wraps a store failure that is not one of the
// repository sentinels: the backend was unreachable or rejected the call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// storeErr passes repository sentinels through unchanged and wraps
// everything else in a TransportError.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	var de *DeniedError
	switch {
	case errors.As(err, &te), errors.As(err, &de),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrRegistrationNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrForbidden),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrNoChange),
		errors.Is(err, repository.ErrInvalidToken),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidCredentials):
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// Kind classifies an error returned by this package.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindPrecondition
	KindUnauthorized
	KindForbidden
	KindConflict
	KindTransport
)

// KindOf maps err to its Kind.  Unknown errors are treated as transport
// failures.
func KindOf(err error) Kind {
	var de *DeniedError
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &de) && de.Reason == ReasonEventNotFound,
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrRegistrationNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrRegistrationDenied),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, repository.ErrNoChange):
		return KindPrecondition
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, repository.ErrInvalidToken):
		return KindUnauthorized
	case errors.Is(err, repository.ErrForbidden):
		return KindForbidden
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEmailExists):
		return KindConflict
	}
	return KindTransport
}
