package repository

import (
	"context"
	"time"

	"github.com/iliyamo/events-booking/internal/model"
)

// Tx runs fn so that every store call made with the context passed to
// fn is applied atomically: either all writes commit or none do.
// Nested calls join the outer transaction.
type Tx interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore persists events.  ReserveSeats and ReleaseSeats are the
// only operations that change AvailableSeats; both are single
// conditional updates reporting whether the guard held.
type EventStore interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	UpdateEvent(ctx context.Context, id string, p model.EventPatch, now time.Time) (*model.Event, error)
	SetEventStatus(ctx context.Context, id string, st model.EventStatus, now time.Time) (*model.Event, error)
	// DeleteEvent removes the event together with all of its
	// registrations and returns how many registrations were removed.
	DeleteEvent(ctx context.Context, id string) (int, error)
	// ReserveSeats decrements available_seats by n only if at least n
	// seats are available.
	ReserveSeats(ctx context.Context, id string, n int) (bool, error)
	// ReleaseSeats increments available_seats by n only if the result
	// does not exceed max_seats.
	ReleaseSeats(ctx context.Context, id string, n int) (bool, error)
}

// RegistrationStore persists registrations, at most one per (event, user).
type RegistrationStore interface {
	GetRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error)
	// CreateRegistration returns ErrConflict when a row for the same
	// (event, user) already exists.
	CreateRegistration(ctx context.Context, r *model.Registration) error
	// AddSeats increases seats_booked by n only if the result does not
	// exceed limit.
	AddSeats(ctx context.Context, eventID, userID string, n, limit int) (bool, error)
	// DeleteRegistration removes the row only while it still holds
	// exactly seats seats.  It reports false when the row changed or
	// vanished since it was read.
	DeleteRegistration(ctx context.Context, eventID, userID string, seats int) (bool, error)
	ListRegistrationsByUser(ctx context.Context, userID string) ([]model.RegistrationWithEvent, error)
	ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, id string, role model.Role, now time.Time) error
	UpdateUserName(ctx context.Context, id, name string, now time.Time) error
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string, now time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) error
}

// StatsStore computes dashboard counters.  today is YYYY-MM-DD.
type StatsStore interface {
	Stats(ctx context.Context, today string) (model.Stats, error)
}

// Store is the full persistence boundary.  It is implemented by the
// MySQL adapter in this package and by memstore.Store.
type Store interface {
	Tx
	EventStore
	RegistrationStore
	UserStore
	TokenStore
	StatsStore
	Ping(ctx context.Context) error
	Close() error
}
