package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/events-booking/internal/model"
)

// EventRepo manages persistence for events.  Dates are stored as DATE
// and times as TIME; both are read back formatted by MySQL so callers
// always see "YYYY-MM-DD" and "HH:MM".
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

const eventColumns = `e.id, e.title_es, e.title_en, e.description_es, e.description_en,
	DATE_FORMAT(e.date, '%Y-%m-%d'), TIME_FORMAT(e.time, '%H:%i'), e.location,
	e.max_seats, e.available_seats, e.status, e.provider_id, e.provider_name,
	e.image_url, e.created_at, e.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e                model.Event
		titleES, titleEN string
		descES, descEN   string
		status           string
		imageURL         sql.NullString
	)
	err := row.Scan(
		&e.ID, &titleES, &titleEN, &descES, &descEN,
		&e.Date, &e.Time, &e.Location,
		&e.MaxSeats, &e.AvailableSeats, &status, &e.ProviderID, &e.ProviderName,
		&imageURL, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Title = model.LocalizedText{model.LangES: titleES, model.LangEN: titleEN}
	e.Description = model.LocalizedText{model.LangES: descES, model.LangEN: descEN}
	e.Status = model.EventStatus(status)
	if imageURL.Valid {
		u := imageURL.String
		e.ImageURL = &u
	}
	return &e, nil
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// CreateEvent inserts e.  The caller assigns ID, timestamps and the
// initial seat counters.
func (r *EventRepo) CreateEvent(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (id, title_es, title_en, description_es, description_en, date, time, location,
	                               max_seats, available_seats, status, provider_id, provider_name, image_url,
	                               created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := conn(ctx, r.db).ExecContext(ctx, q,
		e.ID, e.Title[model.LangES], e.Title[model.LangEN], e.Description[model.LangES], e.Description[model.LangEN],
		e.Date, e.Time, e.Location,
		e.MaxSeats, e.AvailableSeats, string(e.Status), e.ProviderID, e.ProviderName, nullString(e.ImageURL),
		e.CreatedAt, e.UpdatedAt,
	)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// GetEvent retrieves an event by its ID.  It returns ErrEventNotFound if
// there is no matching row.
func (r *EventRepo) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = ?`
	e, err := scanEvent(conn(ctx, r.db).QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListEvents returns events matching f ordered by date and time
// ascending.  When nothing matches it returns an empty slice.
func (r *EventRepo) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	where := []string{}
	args := []any{}
	if f.ProviderID != "" {
		where = append(where, "e.provider_id = ?")
		args = append(args, f.ProviderID)
	}
	if f.Status != "" {
		where = append(where, "e.status = ?")
		args = append(args, string(f.Status))
	}
	if f.From != "" {
		where = append(where, "e.date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		where = append(where, "e.date <= ?")
		args = append(args, f.To)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	q := `SELECT ` + eventColumns + ` FROM events e WHERE ` + cond + ` ORDER BY e.date ASC, e.time ASC, e.created_at ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateEvent applies the non-nil fields of p and returns the fresh row.
// An empty patch returns ErrNoChange.
func (r *EventRepo) UpdateEvent(ctx context.Context, id string, p model.EventPatch, now time.Time) (*model.Event, error) {
	if p.Empty() {
		return nil, ErrNoChange
	}
	set := []string{}
	args := []any{}
	if p.Title != nil {
		set = append(set, "title_es = ?", "title_en = ?")
		args = append(args, p.Title[model.LangES], p.Title[model.LangEN])
	}
	if p.Description != nil {
		set = append(set, "description_es = ?", "description_en = ?")
		args = append(args, p.Description[model.LangES], p.Description[model.LangEN])
	}
	if p.Date != nil {
		set = append(set, "date = ?")
		args = append(args, *p.Date)
	}
	if p.Time != nil {
		set = append(set, "time = ?")
		args = append(args, *p.Time)
	}
	if p.Location != nil {
		set = append(set, "location = ?")
		args = append(args, *p.Location)
	}
	if p.ImageURL != nil {
		set = append(set, "image_url = ?")
		args = append(args, nullString(p.ImageURL))
	}
	set = append(set, "updated_at = ?")
	args = append(args, now, id)
	q := `UPDATE events SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	// The DSN sets clientFoundRows, so zero means no row matched the id.
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrEventNotFound
	}
	return r.GetEvent(ctx, id)
}

// SetEventStatus stores a new lifecycle status.
func (r *EventRepo) SetEventStatus(ctx context.Context, id string, st model.EventStatus, now time.Time) (*model.Event, error) {
	const q = `UPDATE events SET status = ?, updated_at = ? WHERE id = ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, string(st), now, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrEventNotFound
	}
	return r.GetEvent(ctx, id)
}

// DeleteEvent removes an event and all of its registrations.  Run it
// inside WithTx so that no partial cleanup is ever committed.  It
// returns ErrEventNotFound when the event does not exist.
func (r *EventRepo) DeleteEvent(ctx context.Context, id string) (int, error) {
	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, `DELETE FROM event_registrations WHERE event_id = ?`, id)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	res, err = db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrEventNotFound
	}
	return int(removed), nil
}

// ReserveSeats decrements available_seats by n when at least n seats
// are left.  The check and the write are one statement, so concurrent
// callers can never push the counter below zero.
func (r *EventRepo) ReserveSeats(ctx context.Context, id string, n int) (bool, error) {
	const q = `UPDATE events SET available_seats = available_seats - ?
	           WHERE id = ? AND available_seats >= ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, n, id, n)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ReleaseSeats increments available_seats by n as long as the counter
// stays within max_seats.
func (r *EventRepo) ReleaseSeats(ctx context.Context, id string, n int) (bool, error) {
	const q = `UPDATE events SET available_seats = available_seats + ?
	           WHERE id = ? AND available_seats + ? <= max_seats`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, n, id, n)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
