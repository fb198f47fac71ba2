package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/repository"
)

func newEvent(id, date string, seats int) *model.Event {
	return &model.Event{
		ID:             id,
		Title:          model.LocalizedText{model.LangEN: "Talk " + id},
		Date:           date,
		Time:           "18:00",
		Location:       "Hall",
		MaxSeats:       seats,
		AvailableSeats: seats,
		Status:         model.StatusOpen,
		ProviderID:     "p1",
	}
}

func TestSeatGuards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	if err := s.CreateEvent(ctx, newEvent("e1", "2026-01-01", 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	steps := []struct {
		name string
		op   func() (bool, error)
		want bool
		left int
	}{
		{"reserve two", func() (bool, error) { return s.ReserveSeats(ctx, "e1", 2) }, true, 1},
		{"reserve beyond floor", func() (bool, error) { return s.ReserveSeats(ctx, "e1", 2) }, false, 1},
		{"release beyond ceiling", func() (bool, error) { return s.ReleaseSeats(ctx, "e1", 3) }, false, 1},
		{"release two", func() (bool, error) { return s.ReleaseSeats(ctx, "e1", 2) }, true, 3},
		{"reserve unknown event", func() (bool, error) { return s.ReserveSeats(ctx, "nope", 1) }, false, 3},
	}
	for _, st := range steps {
		ok, err := st.op()
		if err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if ok != st.want {
			t.Fatalf("%s: expected %v, got %v", st.name, st.want, ok)
		}
		ev, _ := s.GetEvent(ctx, "e1")
		if ev.AvailableSeats != st.left {
			t.Fatalf("%s: expected %d left, got %d", st.name, st.left, ev.AvailableSeats)
		}
	}
}

func TestRegistrationRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	_ = s.CreateEvent(ctx, newEvent("e1", "2026-01-01", 10))
	r := &model.Registration{ID: "r1", EventID: "e1", UserID: "u1", SeatsBooked: 3}
	if err := s.CreateRegistration(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateRegistration(ctx, &model.Registration{ID: "r2", EventID: "e1", UserID: "u1", SeatsBooked: 1}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate row, got %v", err)
	}
	if ok, _ := s.AddSeats(ctx, "e1", "u1", 2, model.MaxSeatsPerUser); ok {
		t.Fatalf("expected cap guard to refuse 3+2")
	}
	if ok, _ := s.AddSeats(ctx, "e1", "u1", 1, model.MaxSeatsPerUser); !ok {
		t.Fatalf("expected 3+1 to be accepted")
	}
	got, err := s.GetRegistration(ctx, "e1", "u1")
	if err != nil || got.SeatsBooked != 4 {
		t.Fatalf("expected 4 seats, got %+v (%v)", got, err)
	}
	if ok, err := s.DeleteRegistration(ctx, "e1", "u1", 3); ok || err != nil {
		t.Fatalf("expected delete with a stale seat count to be refused, got %v (%v)", ok, err)
	}
	if ok, err := s.DeleteRegistration(ctx, "e1", "u1", 4); !ok || err != nil {
		t.Fatalf("delete: %v (%v)", ok, err)
	}
	if ok, _ := s.DeleteRegistration(ctx, "e1", "u1", 4); ok {
		t.Fatalf("expected second delete to match nothing")
	}
	if _, err := s.GetRegistration(ctx, "e1", "u1"); !errors.Is(err, repository.ErrRegistrationNotFound) {
		t.Fatalf("expected ErrRegistrationNotFound, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	_ = s.CreateEvent(ctx, newEvent("e1", "2026-01-01", 5))
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.ReserveSeats(ctx, "e1", 2); err != nil {
			return err
		}
		// nested calls join the outer transaction
		if err := s.WithTx(ctx, func(ctx context.Context) error {
			return s.CreateRegistration(ctx, &model.Registration{ID: "r1", EventID: "e1", UserID: "u1", SeatsBooked: 2})
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	ev, _ := s.GetEvent(ctx, "e1")
	if ev.AvailableSeats != 5 {
		t.Fatalf("expected seats restored, got %d", ev.AvailableSeats)
	}
	if _, err := s.GetRegistration(ctx, "e1", "u1"); !errors.Is(err, repository.ErrRegistrationNotFound) {
		t.Fatalf("expected registration rolled back, got %v", err)
	}
}

func TestDeleteEventRemovesRegistrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	_ = s.CreateEvent(ctx, newEvent("e1", "2026-01-01", 5))
	_ = s.CreateEvent(ctx, newEvent("e2", "2026-01-02", 5))
	for _, u := range []string{"u1", "u2"} {
		_ = s.CreateRegistration(ctx, &model.Registration{ID: "r-" + u, EventID: "e1", UserID: u, SeatsBooked: 1})
	}
	_ = s.CreateRegistration(ctx, &model.Registration{ID: "r-keep", EventID: "e2", UserID: "u1", SeatsBooked: 1})

	n, err := s.DeleteEvent(ctx, "e1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 removed, got %d (%v)", n, err)
	}
	left, _ := s.ListRegistrationsByUser(ctx, "u1")
	if len(left) != 1 || left[0].EventID != "e2" {
		t.Fatalf("expected only e2 registration, got %+v", left)
	}
	if _, err := s.DeleteEvent(ctx, "e1"); !errors.Is(err, repository.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestEventsAreCopied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	_ = s.CreateEvent(ctx, newEvent("e1", "2026-01-01", 5))

	ev, _ := s.GetEvent(ctx, "e1")
	ev.Title[model.LangEN] = "mutated"
	ev.AvailableSeats = 0

	again, _ := s.GetEvent(ctx, "e1")
	if again.Title[model.LangEN] != "Talk e1" || again.AvailableSeats != 5 {
		t.Fatalf("expected stored event untouched, got %+v", again)
	}
}

func TestListEventsFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	_ = s.CreateEvent(ctx, newEvent("c", "2026-03-01", 5))
	_ = s.CreateEvent(ctx, newEvent("a", "2026-01-01", 5))
	b := newEvent("b", "2026-02-01", 5)
	b.Status = model.StatusPlanned
	_ = s.CreateEvent(ctx, b)

	all, _ := s.ListEvents(ctx, model.EventFilter{})
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
		t.Fatalf("expected a,b,c, got %+v", all)
	}
	ranged, _ := s.ListEvents(ctx, model.EventFilter{From: "2026-02-01", To: "2026-03-01", Status: model.StatusOpen})
	if len(ranged) != 1 || ranged[0].ID != "c" {
		t.Fatalf("expected only c, got %+v", ranged)
	}
}

func TestRefreshTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.StoreRefresh(ctx, "u1", "h1", now.Add(time.Hour))
	_ = s.StoreRefresh(ctx, "u1", "h2", now.Add(time.Hour))

	if uid, err := s.ValidateRefresh(ctx, "h1", now); err != nil || uid != "u1" {
		t.Fatalf("expected u1, got %q (%v)", uid, err)
	}
	if _, err := s.ValidateRefresh(ctx, "h1", now.Add(2*time.Hour)); !errors.Is(err, repository.ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
	_ = s.RevokeByHash(ctx, "h1", now)
	if _, err := s.ValidateRefresh(ctx, "h1", now); !errors.Is(err, repository.ErrInvalidToken) {
		t.Fatalf("expected revoked token rejected, got %v", err)
	}
	_ = s.RevokeAllForUser(ctx, "u1", now)
	if _, err := s.ValidateRefresh(ctx, "h2", now); !errors.Is(err, repository.ErrInvalidToken) {
		t.Fatalf("expected all tokens revoked, got %v", err)
	}
}
