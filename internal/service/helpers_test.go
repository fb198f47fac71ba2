package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/queue"
	"github.com/iliyamo/events-booking/internal/repository/memstore"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func userSession(id string) model.Session {
	return model.Session{UserID: id, Name: "User " + id, Email: id + "@example.com", Role: model.RoleUser}
}

func providerSession(id string) model.Session {
	return model.Session{UserID: id, Name: "Provider " + id, Email: id + "@example.com", Role: model.RoleProvider}
}

func adminSession() model.Session {
	return model.Session{UserID: "admin", Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
}

// seedEvent stores an OPEN event with maxSeats seats owned by provider "p1".
func seedEvent(t *testing.T, st *memstore.Store, maxSeats int, mutate ...func(*model.Event)) *model.Event {
	t.Helper()
	ev := &model.Event{
		ID:             uuid.NewString(),
		Title:          model.LocalizedText{model.LangES: "Concierto", model.LangEN: "Concert"},
		Description:    model.LocalizedText{model.LangEN: "An evening of **music**."},
		Date:           "2026-04-10",
		Time:           "19:30",
		Location:       "Main hall",
		MaxSeats:       maxSeats,
		AvailableSeats: maxSeats,
		Status:         model.StatusOpen,
		ProviderID:     "p1",
		ProviderName:   "Provider p1",
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
	for _, m := range mutate {
		m(ev)
	}
	if err := st.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return ev
}

func availableSeats(t *testing.T, st *memstore.Store, eventID string) int {
	t.Helper()
	ev, err := st.GetEvent(context.Background(), eventID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	return ev.AvailableSeats
}

// assertSeatInvariant checks that booked seats plus available seats add
// up to capacity.
func assertSeatInvariant(t *testing.T, st *memstore.Store, eventID string) {
	t.Helper()
	ctx := context.Background()
	ev, err := st.GetEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	regs, err := st.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("list registrations: %v", err)
	}
	booked := 0
	for _, r := range regs {
		booked += r.SeatsBooked
	}
	if ev.AvailableSeats < 0 || ev.AvailableSeats > ev.MaxSeats {
		t.Fatalf("available seats %d out of range 0..%d", ev.AvailableSeats, ev.MaxSeats)
	}
	if booked+ev.AvailableSeats != ev.MaxSeats {
		t.Fatalf("expected booked %d + available %d == max %d", booked, ev.AvailableSeats, ev.MaxSeats)
	}
}
