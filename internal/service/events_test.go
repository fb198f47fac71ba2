package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/queue"
	"github.com/iliyamo/events-booking/internal/repository"
	"github.com/iliyamo/events-booking/internal/repository/memstore"
)

func validInput() EventInput {
	return EventInput{
		Title:       model.LocalizedText{model.LangES: "Taller", model.LangEN: "Workshop"},
		Description: model.LocalizedText{model.LangEN: "Bring a laptop."},
		Date:        "2026-05-02",
		Time:        "09:00",
		Location:    "Room 4",
		MaxSeats:    30,
	}
}

func strPtr(s string) *string { return &s }

func TestCreateEventStartsPlannedWithAllSeats(t *testing.T) {
	t.Parallel()

	svc := NewEventService(memstore.New(), WithClock(fixedClock))
	ev, err := svc.CreateEvent(context.Background(), providerSession("p1"), validInput())
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if ev.Status != model.StatusPlanned {
		t.Fatalf("expected PLANNED, got %s", ev.Status)
	}
	if ev.AvailableSeats != ev.MaxSeats || ev.MaxSeats != 30 {
		t.Fatalf("expected 30/30 seats, got %d/%d", ev.AvailableSeats, ev.MaxSeats)
	}
	if ev.ProviderID != "p1" || ev.ProviderName != "Provider p1" {
		t.Fatalf("expected provider taken from session, got %s/%s", ev.ProviderID, ev.ProviderName)
	}
	if !ev.CreatedAt.Equal(testNow) {
		t.Fatalf("expected created_at %v, got %v", testNow, ev.CreatedAt)
	}
}

func TestCreateEventValidation(t *testing.T) {
	t.Parallel()

	svc := NewEventService(memstore.New(), WithClock(fixedClock))
	tests := []struct {
		name   string
		mutate func(*EventInput)
	}{
		{"missing spanish title", func(in *EventInput) { delete(in.Title, model.LangES) }},
		{"missing english title", func(in *EventInput) { in.Title[model.LangEN] = "  " }},
		{"no title", func(in *EventInput) { in.Title = nil }},
		{"bad date", func(in *EventInput) { in.Date = "02/05/2026" }},
		{"bad time", func(in *EventInput) { in.Time = "9am" }},
		{"no location", func(in *EventInput) { in.Location = "   " }},
		{"zero seats", func(in *EventInput) { in.MaxSeats = 0 }},
		{"too many seats", func(in *EventInput) { in.MaxSeats = 100001 }},
		{"bad image url", func(in *EventInput) { in.ImageURL = "not a url" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := validInput()
			tt.mutate(&in)
			_, err := svc.CreateEvent(context.Background(), providerSession("p1"), in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if KindOf(err) != KindPrecondition {
				t.Fatalf("expected KindPrecondition, got %v", KindOf(err))
			}
		})
	}
}

func TestCreateEventRequiresProviderOrAdmin(t *testing.T) {
	t.Parallel()

	svc := NewEventService(memstore.New())
	if _, err := svc.CreateEvent(context.Background(), userSession("u1"), validInput()); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.CreateEvent(context.Background(), adminSession(), validInput()); err != nil {
		t.Fatalf("expected admin to create, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memstore.New()
	svc := NewEventService(st, WithClock(fixedClock))
	ev := seedEvent(t, st, 5, func(e *model.Event) { e.Status = model.StatusPlanned })

	t.Run("any direction", func(t *testing.T) {
		for _, next := range []model.EventStatus{model.StatusConfirmed, model.StatusPlanned, model.StatusOpen, model.StatusPlanned} {
			got, err := svc.SetStatus(ctx, adminSession(), ev.ID, next)
			if err != nil {
				t.Fatalf("set %s: %v", next, err)
			}
			if got.Status != next {
				t.Fatalf("expected %s, got %s", next, got.Status)
			}
		}
	})
	t.Run("terminal states rejected", func(t *testing.T) {
		for _, next := range []model.EventStatus{model.StatusCanceled, model.StatusSuccessful} {
			if _, err := svc.SetStatus(ctx, adminSession(), ev.ID, next); !errors.Is(err, ErrInvalidStatus) {
				t.Fatalf("set %s: expected ErrInvalidStatus, got %v", next, err)
			}
		}
	})
	t.Run("admin only", func(t *testing.T) {
		if _, err := svc.SetStatus(ctx, providerSession("p1"), ev.ID, model.StatusOpen); !errors.Is(err, repository.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
	t.Run("unknown event", func(t *testing.T) {
		if _, err := svc.SetStatus(ctx, adminSession(), "missing", model.StatusOpen); !errors.Is(err, repository.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})
}

func TestDeleteEventCascadesRegistrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memstore.New()
	pub := &recordingPublisher{}
	events := NewEventService(st, WithClock(fixedClock), WithPublisher(pub))
	bookings := NewBookingService(st, WithClock(fixedClock))
	ev := seedEvent(t, st, 10)
	other := seedEvent(t, st, 10)

	for i := 0; i < 3; i++ {
		if _, err := bookings.Register(ctx, userSession(fmt.Sprintf("u%d", i)), ev.ID, 1); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if _, err := bookings.Register(ctx, userSession("u0"), other.ID, 2); err != nil {
		t.Fatalf("register other: %v", err)
	}

	if _, err := events.DeleteEvent(ctx, providerSession("p2"), ev.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another provider, got %v", err)
	}

	removed, err := events.DeleteEvent(ctx, providerSession("p1"), ev.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 registrations removed, got %d", removed)
	}
	regs, err := st.ListRegistrationsByEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != 0 {
		t.Fatalf("expected no registrations left, got %d", len(regs))
	}
	if _, err := st.GetEvent(ctx, ev.ID); !errors.Is(err, repository.ErrEventNotFound) {
		t.Fatalf("expected event gone, got %v", err)
	}
	mine, err := bookings.ListUserRegistrations(ctx, userSession("u0"))
	if err != nil {
		t.Fatalf("list user: %v", err)
	}
	if len(mine) != 1 || mine[0].EventID != other.ID {
		t.Fatalf("expected only the other event's registration, got %+v", mine)
	}
	if got := pub.types(); len(got) != 1 || got[0] != queue.TypeEventDeleted || pub.events[0].Removed != 3 {
		t.Fatalf("expected one event.deleted with 3 removed, got %+v", pub.events)
	}

	if _, err := events.DeleteEvent(ctx, adminSession(), ev.ID); !errors.Is(err, repository.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound on second delete, got %v", err)
	}
}

func TestUpdateEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memstore.New()
	svc := NewEventService(st, WithClock(fixedClock))
	ev := seedEvent(t, st, 10)

	got, err := svc.UpdateEvent(ctx, providerSession("p1"), ev.ID, model.EventPatch{
		Location: strPtr("  Open air stage "),
		Time:     strPtr("21:00"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Location != "Open air stage" || got.Time != "21:00" {
		t.Fatalf("unexpected event after update %+v", got)
	}
	if got.MaxSeats != 10 || got.AvailableSeats != 10 || got.Status != model.StatusOpen {
		t.Fatalf("expected seats and status untouched, got %+v", got)
	}

	tests := []struct {
		name  string
		sess  model.Session
		patch model.EventPatch
		want  error
	}{
		{"empty patch", adminSession(), model.EventPatch{}, repository.ErrNoChange},
		{"other provider", providerSession("p2"), model.EventPatch{Location: strPtr("x")}, repository.ErrForbidden},
		{"user", userSession("u1"), model.EventPatch{Location: strPtr("x")}, repository.ErrForbidden},
		{"bad date", adminSession(), model.EventPatch{Date: strPtr("2026-13-01")}, ErrInvalidInput},
		{"half title", adminSession(), model.EventPatch{Title: model.LocalizedText{model.LangEN: "Only"}}, ErrInvalidInput},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpdateEvent(ctx, tt.sess, ev.ID, tt.patch); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestListEventQueries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memstore.New()
	svc := NewEventService(st)
	late := seedEvent(t, st, 5, func(e *model.Event) { e.Date = "2026-06-01" })
	early := seedEvent(t, st, 5, func(e *model.Event) {
		e.Date = "2026-04-01"
		e.Status = model.StatusPlanned
	})
	evening := seedEvent(t, st, 5, func(e *model.Event) {
		e.Date = "2026-05-01"
		e.Time = "20:00"
		e.ProviderID = "p2"
	})
	morning := seedEvent(t, st, 5, func(e *model.Event) {
		e.Date = "2026-05-01"
		e.Time = "08:00"
	})

	ids := func(evs []model.Event) []string {
		out := make([]string, len(evs))
		for i, e := range evs {
			out[i] = e.ID
		}
		return out
	}
	equal := func(a, b []string) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	all, err := svc.ListEvents(ctx, model.EventFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{early.ID, morning.ID, evening.ID, late.ID}; !equal(ids(all), want) {
		t.Fatalf("expected date/time order %v, got %v", want, ids(all))
	}

	byProvider, err := svc.ListByProvider(ctx, "p2")
	if err != nil || !equal(ids(byProvider), []string{evening.ID}) {
		t.Fatalf("by provider: got %v, %v", ids(byProvider), err)
	}

	planned, err := svc.ListByStatus(ctx, model.StatusPlanned)
	if err != nil || !equal(ids(planned), []string{early.ID}) {
		t.Fatalf("by status: got %v, %v", ids(planned), err)
	}

	ranged, err := svc.ListByDateRange(ctx, "2026-04-01", "2026-05-01")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if want := []string{early.ID, morning.ID, evening.ID}; !equal(ids(ranged), want) {
		t.Fatalf("expected inclusive range %v, got %v", want, ids(ranged))
	}

	if _, err := svc.ListByDateRange(ctx, "2026-06-01", "2026-04-01"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
	if _, err := svc.GetEvent(ctx, "missing"); !errors.Is(err, repository.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}
