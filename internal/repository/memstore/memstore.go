// Package memstore is an in-memory implementation of repository.Store.
// It backs the service in tests and in STORE_BACKEND=memory mode.  A
// single mutex serializes access; WithTx holds it for the whole
// callback and rolls every map back when the callback fails.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/repository"
)

type txKey struct{}

type regKey struct{ eventID, userID string }

// Store keeps all rows in maps guarded by mu.
type Store struct {
	mu     sync.Mutex
	events map[string]model.Event
	regs   map[regKey]model.Registration
	users  map[string]model.User
	tokens map[string]model.RefreshToken
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		events: make(map[string]model.Event),
		regs:   make(map[regKey]model.Registration),
		users:  make(map[string]model.User),
		tokens: make(map[string]model.RefreshToken),
	}
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// lock acquires mu unless the caller already holds it through WithTx.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	events map[string]model.Event
	regs   map[regKey]model.Registration
	users  map[string]model.User
	tokens map[string]model.RefreshToken
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		events: make(map[string]model.Event, len(s.events)),
		regs:   make(map[regKey]model.Registration, len(s.regs)),
		users:  make(map[string]model.User, len(s.users)),
		tokens: make(map[string]model.RefreshToken, len(s.tokens)),
	}
	for k, v := range s.events {
		snap.events[k] = v
	}
	for k, v := range s.regs {
		snap.regs[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.tokens {
		snap.tokens[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.events, s.regs, s.users, s.tokens = snap.events, snap.regs, snap.users, snap.tokens
}

// WithTx runs fn while holding the store lock.  Any error returned by
// fn discards every write fn made.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func cloneText(t model.LocalizedText) model.LocalizedText {
	if t == nil {
		return nil
	}
	out := make(model.LocalizedText, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func cloneEvent(e model.Event) model.Event {
	e.Title = cloneText(e.Title)
	e.Description = cloneText(e.Description)
	if e.ImageURL != nil {
		u := *e.ImageURL
		e.ImageURL = &u
	}
	return e
}

func sortEvents(evs []model.Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].Date != evs[j].Date {
			return evs[i].Date < evs[j].Date
		}
		if evs[i].Time != evs[j].Time {
			return evs[i].Time < evs[j].Time
		}
		return evs[i].CreatedAt.Before(evs[j].CreatedAt)
	})
}

// ---- events ----

func (s *Store) CreateEvent(ctx context.Context, e *model.Event) error {
	defer s.lock(ctx)()
	if _, ok := s.events[e.ID]; ok {
		return repository.ErrConflict
	}
	s.events[e.ID] = cloneEvent(*e)
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	defer s.lock(ctx)()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	out := cloneEvent(e)
	return &out, nil
}

func (s *Store) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	defer s.lock(ctx)()
	out := []model.Event{}
	for _, e := range s.events {
		if f.ProviderID != "" && e.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.From != "" && e.Date < f.From {
			continue
		}
		if f.To != "" && e.Date > f.To {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sortEvents(out)
	return out, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, p model.EventPatch, now time.Time) (*model.Event, error) {
	if p.Empty() {
		return nil, repository.ErrNoChange
	}
	defer s.lock(ctx)()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	if p.Title != nil {
		e.Title = cloneText(p.Title)
	}
	if p.Description != nil {
		e.Description = cloneText(p.Description)
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.ImageURL != nil {
		if *p.ImageURL == "" {
			e.ImageURL = nil
		} else {
			u := *p.ImageURL
			e.ImageURL = &u
		}
	}
	e.UpdatedAt = now
	s.events[id] = e
	out := cloneEvent(e)
	return &out, nil
}

func (s *Store) SetEventStatus(ctx context.Context, id string, st model.EventStatus, now time.Time) (*model.Event, error) {
	defer s.lock(ctx)()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	e.Status = st
	e.UpdatedAt = now
	s.events[id] = e
	out := cloneEvent(e)
	return &out, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) (int, error) {
	defer s.lock(ctx)()
	if _, ok := s.events[id]; !ok {
		return 0, repository.ErrEventNotFound
	}
	removed := 0
	for k := range s.regs {
		if k.eventID == id {
			delete(s.regs, k)
			removed++
		}
	}
	delete(s.events, id)
	return removed, nil
}

func (s *Store) ReserveSeats(ctx context.Context, id string, n int) (bool, error) {
	defer s.lock(ctx)()
	e, ok := s.events[id]
	if !ok || e.AvailableSeats < n {
		return false, nil
	}
	e.AvailableSeats -= n
	s.events[id] = e
	return true, nil
}

func (s *Store) ReleaseSeats(ctx context.Context, id string, n int) (bool, error) {
	defer s.lock(ctx)()
	e, ok := s.events[id]
	if !ok || e.AvailableSeats+n > e.MaxSeats {
		return false, nil
	}
	e.AvailableSeats += n
	s.events[id] = e
	return true, nil
}

// ---- registrations ----

func (s *Store) GetRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	defer s.lock(ctx)()
	r, ok := s.regs[regKey{eventID, userID}]
	if !ok {
		return nil, repository.ErrRegistrationNotFound
	}
	return &r, nil
}

func (s *Store) CreateRegistration(ctx context.Context, r *model.Registration) error {
	defer s.lock(ctx)()
	k := regKey{r.EventID, r.UserID}
	if _, ok := s.regs[k]; ok {
		return repository.ErrConflict
	}
	s.regs[k] = *r
	return nil
}

func (s *Store) AddSeats(ctx context.Context, eventID, userID string, n, limit int) (bool, error) {
	defer s.lock(ctx)()
	k := regKey{eventID, userID}
	r, ok := s.regs[k]
	if !ok || r.SeatsBooked+n > limit {
		return false, nil
	}
	r.SeatsBooked += n
	s.regs[k] = r
	return true, nil
}

func (s *Store) DeleteRegistration(ctx context.Context, eventID, userID string, seats int) (bool, error) {
	defer s.lock(ctx)()
	k := regKey{eventID, userID}
	if r, ok := s.regs[k]; !ok || r.SeatsBooked != seats {
		return false, nil
	}
	delete(s.regs, k)
	return true, nil
}

func (s *Store) ListRegistrationsByUser(ctx context.Context, userID string) ([]model.RegistrationWithEvent, error) {
	defer s.lock(ctx)()
	out := []model.RegistrationWithEvent{}
	for k, r := range s.regs {
		if k.userID != userID {
			continue
		}
		e, ok := s.events[k.eventID]
		if !ok {
			continue
		}
		out = append(out, model.RegistrationWithEvent{Registration: r, Event: cloneEvent(e)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Event, out[j].Event
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Time < b.Time
	})
	return out, nil
}

func (s *Store) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	defer s.lock(ctx)()
	out := []model.Registration{}
	for k, r := range s.regs {
		if k.eventID == eventID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	defer s.lock(ctx)()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer s.lock(ctx)()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	defer s.lock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	defer s.lock(ctx)()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role model.Role, now time.Time) error {
	defer s.lock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = now
	s.users[id] = u
	return nil
}

func (s *Store) UpdateUserName(ctx context.Context, id, name string, now time.Time) error {
	defer s.lock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Name = name
	u.UpdatedAt = now
	s.users[id] = u
	return nil
}

// ---- refresh tokens ----

func (s *Store) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	defer s.lock(ctx)()
	s.tokens[tokenHash] = model.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: exp, CreatedAt: time.Now().UTC()}
	return nil
}

func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	defer s.lock(ctx)()
	t, ok := s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || now.After(t.ExpiresAt) {
		return "", repository.ErrInvalidToken
	}
	return t.UserID, nil
}

func (s *Store) RevokeByHash(ctx context.Context, tokenHash string, now time.Time) error {
	defer s.lock(ctx)()
	t, ok := s.tokens[tokenHash]
	if ok && t.RevokedAt == nil {
		t.RevokedAt = &now
		s.tokens[tokenHash] = t
	}
	return nil
}

func (s *Store) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	defer s.lock(ctx)()
	for h, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.tokens[h] = t
		}
	}
	return nil
}

// ---- stats ----

func (s *Store) Stats(ctx context.Context, today string) (model.Stats, error) {
	defer s.lock(ctx)()
	st := model.Stats{
		TotalEvents:        len(s.events),
		TotalUsers:         len(s.users),
		TotalRegistrations: len(s.regs),
	}
	for _, r := range s.regs {
		st.TotalSeatsBooked += r.SeatsBooked
	}
	for _, e := range s.events {
		if e.Date >= today {
			st.UpcomingEvents++
		}
	}
	return st, nil
}
