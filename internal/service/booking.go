package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/queue"
	"github.com/iliyamo/events-booking/internal/repository"
)

// BookingService applies the seat-accounting rules.  Every seat change
// goes through the store's conditional ReserveSeats/ReleaseSeats inside
// the same transaction as the registration write, so concurrent
// bookings can never oversell an event.
type BookingService struct {
	store repository.Store
	opts  options
}

// NewBookingService constructs a BookingService over store.
func NewBookingService(store repository.Store, opts ...Option) *BookingService {
	return &BookingService{store: store, opts: buildOptions(opts)}
}

// EventRegistrations is the registration list of one event with its totals.
type EventRegistrations struct {
	Registrations []model.Registration `json:"registrations"`
	Total         int                  `json:"total"`
	TotalSeats    int                  `json:"total_seats"`
}

// CanRegister reports whether sess may book seats on eventID.  It
// returns nil when allowed, a *DeniedError naming the first failed check
// otherwise, or a store error.
func (s *BookingService) CanRegister(ctx context.Context, sess model.Session, eventID string, seats int) error {
	_, _, err := s.check(ctx, sess, eventID, seats)
	return err
}

// check evaluates the registration rules in order and returns the event
// and the seats sess already holds on it.
func (s *BookingService) check(ctx context.Context, sess model.Session, eventID string, seats int) (*model.Event, int, error) {
	if seats < 1 {
		return nil, 0, deny(ReasonInvalidSeatCount)
	}
	ev, err := s.store.GetEvent(ctx, eventID)
	if errors.Is(err, repository.ErrEventNotFound) {
		return nil, 0, deny(ReasonEventNotFound)
	}
	if err != nil {
		return nil, 0, storeErr("get event", err)
	}
	if !ev.Status.Bookable() {
		return nil, 0, deny(ReasonEventNotOpen)
	}
	if sess.Role != model.RoleUser {
		return nil, 0, deny(ReasonRoleNotPermitted)
	}
	if ev.AvailableSeats < seats {
		return nil, 0, deny(ReasonInsufficientSeats)
	}
	held := 0
	reg, err := s.store.GetRegistration(ctx, eventID, sess.UserID)
	switch {
	case err == nil:
		held = reg.SeatsBooked
	case !errors.Is(err, repository.ErrRegistrationNotFound):
		return nil, 0, storeErr("get registration", err)
	}
	if held+seats > model.MaxSeatsPerUser {
		return nil, 0, deny(ReasonPerUserCapExceeded)
	}
	return ev, held, nil
}

// Register books seats for sess on eventID.  A repeat booking is merged
// into the caller's existing registration.  Losing a race against a
// concurrent booking yields repository.ErrConflict.
func (s *BookingService) Register(ctx context.Context, sess model.Session, eventID string, seats int) (*model.Registration, error) {
	var (
		reg *model.Registration
		ev  *model.Event
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		_, held, err := s.check(ctx, sess, eventID, seats)
		if err != nil {
			return err
		}
		ok, err := s.store.ReserveSeats(ctx, eventID, seats)
		if err != nil {
			return storeErr("reserve seats", err)
		}
		if !ok {
			return repository.ErrConflict
		}
		if held > 0 {
			ok, err := s.store.AddSeats(ctx, eventID, sess.UserID, seats, model.MaxSeatsPerUser)
			if err != nil {
				return storeErr("add seats", err)
			}
			if !ok {
				return repository.ErrConflict
			}
		} else {
			r := &model.Registration{
				ID:           uuid.NewString(),
				EventID:      eventID,
				UserID:       sess.UserID,
				UserName:     sess.Name,
				UserEmail:    sess.Email,
				SeatsBooked:  seats,
				RegisteredAt: s.opts.now().UTC(),
			}
			if err := s.store.CreateRegistration(ctx, r); err != nil {
				return storeErr("create registration", err)
			}
		}
		if reg, err = s.store.GetRegistration(ctx, eventID, sess.UserID); err != nil {
			return storeErr("get registration", err)
		}
		if ev, err = s.store.GetEvent(ctx, eventID); err != nil {
			return storeErr("get event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info("registration created",
		zap.String("event_id", eventID),
		zap.String("user_id", sess.UserID),
		zap.Int("seats", seats),
		zap.Int("seats_held", reg.SeatsBooked),
		zap.Int("available_seats", ev.AvailableSeats))
	s.opts.publish(ctx, bookingEvent(queue.TypeRegistrationCreated, ev, reg, seats))
	return reg, nil
}

// Cancel removes the caller's registration on eventID and returns its
// seats to the event.  The removed registration is returned.
func (s *BookingService) Cancel(ctx context.Context, sess model.Session, eventID string) (*model.Registration, error) {
	var (
		reg *model.Registration
		ev  *model.Event
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		r, err := s.store.GetRegistration(ctx, eventID, sess.UserID)
		if err != nil {
			return storeErr("get registration", err)
		}
		ok, err := s.store.DeleteRegistration(ctx, eventID, sess.UserID, r.SeatsBooked)
		if err != nil {
			return storeErr("delete registration", err)
		}
		if !ok {
			return repository.ErrConflict
		}
		ok, err = s.store.ReleaseSeats(ctx, eventID, r.SeatsBooked)
		if err != nil {
			return storeErr("release seats", err)
		}
		if !ok {
			return repository.ErrConflict
		}
		if ev, err = s.store.GetEvent(ctx, eventID); err != nil {
			return storeErr("get event", err)
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info("registration cancelled",
		zap.String("event_id", eventID),
		zap.String("user_id", sess.UserID),
		zap.Int("seats", reg.SeatsBooked),
		zap.Int("available_seats", ev.AvailableSeats))
	s.opts.publish(ctx, bookingEvent(queue.TypeRegistrationCancelled, ev, reg, reg.SeatsBooked))
	return reg, nil
}

// ListUserRegistrations returns the caller's registrations joined with
// their events, ordered by event date.
func (s *BookingService) ListUserRegistrations(ctx context.Context, sess model.Session) ([]model.RegistrationWithEvent, error) {
	out, err := s.store.ListRegistrationsByUser(ctx, sess.UserID)
	if err != nil {
		return nil, storeErr("list user registrations", err)
	}
	return out, nil
}

// ListEventRegistrations returns the registrations of eventID.  Only the
// owning provider and admins may read them.
func (s *BookingService) ListEventRegistrations(ctx context.Context, sess model.Session, eventID string) (EventRegistrations, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return EventRegistrations{}, storeErr("get event", err)
	}
	if !sess.CanManage(ev.ProviderID) {
		return EventRegistrations{}, repository.ErrForbidden
	}
	regs, err := s.store.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return EventRegistrations{}, storeErr("list event registrations", err)
	}
	out := EventRegistrations{Registrations: regs, Total: len(regs)}
	for _, r := range regs {
		out.TotalSeats += r.SeatsBooked
	}
	return out, nil
}

func bookingEvent(typ string, ev *model.Event, reg *model.Registration, seats int) queue.BookingEvent {
	out := queue.BookingEvent{
		Type:           typ,
		EventID:        ev.ID,
		EventTitle:     ev.Title.In(model.LangEN),
		EventDate:      ev.Date,
		EventTime:      ev.Time,
		Location:       ev.Location,
		Description:    ev.Description.In(model.LangEN),
		AvailableSeats: ev.AvailableSeats,
		Seats:          seats,
	}
	if reg != nil {
		out.UserID = reg.UserID
		out.UserName = reg.UserName
		out.UserEmail = reg.UserEmail
		if typ == queue.TypeRegistrationCreated {
			out.SeatsHeld = reg.SeatsBooked
		}
	}
	return out
}
