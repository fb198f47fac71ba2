package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/repository"
	"github.com/iliyamo/events-booking/internal/repository/memstore"
)

func seedUser(t *testing.T, st *memstore.Store, id string, role model.Role) {
	t.Helper()
	u := &model.User{ID: id, Email: id + "@example.com", Name: id, Role: role, CreatedAt: testNow, UpdatedAt: testNow}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestPromoteAndDemote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memstore.New()
	svc := NewAdminService(st, WithClock(fixedClock))
	seedUser(t, st, "u1", model.RoleUser)
	seedUser(t, st, "boss", model.RoleAdmin)

	u, err := svc.Promote(ctx, adminSession(), "u1")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if u.Role != model.RoleProvider {
		t.Fatalf("expected provider, got %s", u.Role)
	}
	if _, err := svc.Promote(ctx, adminSession(), "u1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput promoting a provider, got %v", err)
	}

	u, err = svc.Demote(ctx, adminSession(), "u1")
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if u.Role != model.RoleUser {
		t.Fatalf("expected user, got %s", u.Role)
	}

	if _, err := svc.Demote(ctx, adminSession(), "boss"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected admins to be untouchable, got %v", err)
	}
	if _, err := svc.Promote(ctx, adminSession(), "ghost"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Promote(ctx, providerSession("p1"), "u1"); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memstore.New()
	admin := NewAdminService(st, WithClock(fixedClock))
	bookings := NewBookingService(st, WithClock(fixedClock))
	seedUser(t, st, "u1", model.RoleUser)
	seedUser(t, st, "u2", model.RoleUser)

	past := seedEvent(t, st, 10, func(e *model.Event) { e.Date = "2026-02-01" })
	today := seedEvent(t, st, 10, func(e *model.Event) { e.Date = testNow.Format("2006-01-02") })
	seedEvent(t, st, 10, func(e *model.Event) { e.Date = testNow.Add(48 * time.Hour).Format("2006-01-02") })

	if _, err := bookings.Register(ctx, userSession("u1"), past.ID, 2); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := bookings.Register(ctx, userSession("u2"), today.ID, 3); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := admin.Stats(ctx, adminSession())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := model.Stats{TotalEvents: 3, TotalUsers: 2, TotalRegistrations: 2, TotalSeatsBooked: 5, UpcomingEvents: 2}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if _, err := admin.Stats(ctx, userSession("u1")); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListUsersAdminOnly(t *testing.T) {
	t.Parallel()

	st := memstore.New()
	svc := NewAdminService(st)
	seedUser(t, st, "u1", model.RoleUser)

	users, err := svc.ListUsers(context.Background(), adminSession())
	if err != nil || len(users) != 1 {
		t.Fatalf("expected one user, got %d (%v)", len(users), err)
	}
	if _, err := svc.ListUsers(context.Background(), userSession("u1")); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
