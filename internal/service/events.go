package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/queue"
	"github.com/iliyamo/events-booking/internal/repository"
)

var validate = validator.New()

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// EventInput is the payload for creating an event.
type EventInput struct {
	Title       model.LocalizedText `json:"title" validate:"required"`
	Description model.LocalizedText `json:"description"`
	Date        string              `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string              `json:"time" validate:"required,datetime=15:04"`
	Location    string              `json:"location" validate:"required,max=255"`
	MaxSeats    int                 `json:"max_seats" validate:"min=1,max=100000"`
	ImageURL    string              `json:"image_url" validate:"omitempty,url,max=1024"`
}

// EventService manages the event lifecycle and the event read queries.
type EventService struct {
	store repository.Store
	opts  options
}

// NewEventService constructs an EventService over store.
func NewEventService(store repository.Store, opts ...Option) *EventService {
	return &EventService{store: store, opts: buildOptions(opts)}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateTitle(t model.LocalizedText) error {
	for _, lang := range []string{model.LangES, model.LangEN} {
		if strings.TrimSpace(t[lang]) == "" {
			return invalid("title.%s is required", lang)
		}
	}
	return nil
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return invalid("%s", err.Error())
	}
	return nil
}

// CreateEvent stores a new PLANNED event owned by sess with every seat
// available.  Only providers and admins may create events.
func (s *EventService) CreateEvent(ctx context.Context, sess model.Session, in EventInput) (*model.Event, error) {
	if sess.Role != model.RoleProvider && sess.Role != model.RoleAdmin {
		return nil, repository.ErrForbidden
	}
	in.Location = strings.TrimSpace(in.Location)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	now := s.opts.now().UTC()
	ev := &model.Event{
		ID:             uuid.NewString(),
		Title:          in.Title,
		Description:    in.Description,
		Date:           in.Date,
		Time:           in.Time,
		Location:       in.Location,
		MaxSeats:       in.MaxSeats,
		AvailableSeats: in.MaxSeats,
		Status:         model.StatusPlanned,
		ProviderID:     sess.UserID,
		ProviderName:   sess.Name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if ev.Description == nil {
		ev.Description = model.LocalizedText{}
	}
	if in.ImageURL != "" {
		u := in.ImageURL
		ev.ImageURL = &u
	}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, storeErr("create event", err)
	}
	s.opts.log.Info("event created",
		zap.String("event_id", ev.ID),
		zap.String("provider_id", ev.ProviderID),
		zap.Int("max_seats", ev.MaxSeats))
	return ev, nil
}

// UpdateEvent applies p to eventID.  Only the owning provider and admins
// may edit an event.  Capacity, seats, status and ownership are not
// editable here.
func (s *EventService) UpdateEvent(ctx context.Context, sess model.Session, eventID string, p model.EventPatch) (*model.Event, error) {
	if p.Empty() {
		return nil, repository.ErrNoChange
	}
	if p.Title != nil {
		if err := validateTitle(p.Title); err != nil {
			return nil, err
		}
	}
	if p.Date != nil {
		if _, err := time.Parse(dateLayout, *p.Date); err != nil {
			return nil, invalid("date must be YYYY-MM-DD")
		}
	}
	if p.Time != nil {
		if _, err := time.Parse(timeLayout, *p.Time); err != nil {
			return nil, invalid("time must be HH:MM")
		}
	}
	if p.Location != nil {
		loc := strings.TrimSpace(*p.Location)
		if loc == "" {
			return nil, invalid("location is required")
		}
		p.Location = &loc
	}
	if p.ImageURL != nil && *p.ImageURL != "" {
		if err := validate.Var(*p.ImageURL, "url,max=1024"); err != nil {
			return nil, invalid("image_url must be a URL")
		}
	}

	var out *model.Event
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		ev, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return storeErr("get event", err)
		}
		if !sess.CanManage(ev.ProviderID) {
			return repository.ErrForbidden
		}
		out, err = s.store.UpdateEvent(ctx, eventID, p, s.opts.now().UTC())
		return storeErr("update event", err)
	})
	if err != nil {
		return nil, err
	}
	s.opts.log.Info("event updated", zap.String("event_id", eventID), zap.String("by", sess.UserID))
	return out, nil
}

// SetStatus moves eventID to st.  Admin only; any of PLANNED, OPEN and
// CONFIRMED may be set from any other state.
func (s *EventService) SetStatus(ctx context.Context, sess model.Session, eventID string, st model.EventStatus) (*model.Event, error) {
	if !sess.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	if !st.AdminSettable() {
		return nil, ErrInvalidStatus
	}
	ev, err := s.store.SetEventStatus(ctx, eventID, st, s.opts.now().UTC())
	if err != nil {
		return nil, storeErr("set event status", err)
	}
	s.opts.log.Info("event status changed",
		zap.String("event_id", eventID),
		zap.String("status", string(st)))
	return ev, nil
}

// DeleteEvent removes eventID and every registration on it in one
// transaction.  Admins may delete any event, providers only their own.
// It returns the number of registrations removed.
func (s *EventService) DeleteEvent(ctx context.Context, sess model.Session, eventID string) (int, error) {
	var (
		ev      *model.Event
		removed int
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if ev, err = s.store.GetEvent(ctx, eventID); err != nil {
			return storeErr("get event", err)
		}
		if !sess.CanManage(ev.ProviderID) {
			return repository.ErrForbidden
		}
		removed, err = s.store.DeleteEvent(ctx, eventID)
		return storeErr("delete event", err)
	})
	if err != nil {
		return 0, err
	}
	s.opts.log.Info("event deleted",
		zap.String("event_id", eventID),
		zap.String("by", sess.UserID),
		zap.Int("registrations_removed", removed))
	msg := bookingEvent(queue.TypeEventDeleted, ev, nil, 0)
	msg.Removed = removed
	s.opts.publish(ctx, msg)
	return removed, nil
}

// GetEvent returns a single event.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, storeErr("get event", err)
	}
	return ev, nil
}

// ListEvents returns events matching f ordered by date then time.
// Date bounds must be YYYY-MM-DD and are inclusive.
func (s *EventService) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, invalid("date bounds must be YYYY-MM-DD")
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return nil, invalid("from must not be after to")
	}
	out, err := s.store.ListEvents(ctx, f)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	return out, nil
}

// ListByProvider returns the events owned by providerID.
func (s *EventService) ListByProvider(ctx context.Context, providerID string) ([]model.Event, error) {
	return s.ListEvents(ctx, model.EventFilter{ProviderID: providerID})
}

// ListByStatus returns the events in state st.
func (s *EventService) ListByStatus(ctx context.Context, st model.EventStatus) ([]model.Event, error) {
	return s.ListEvents(ctx, model.EventFilter{Status: st})
}

// ListByDateRange returns the events dated between from and to inclusive.
func (s *EventService) ListByDateRange(ctx context.Context, from, to string) ([]model.Event, error) {
	return s.ListEvents(ctx, model.EventFilter{From: from, To: to})
}
