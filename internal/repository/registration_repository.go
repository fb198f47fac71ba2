package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/events-booking/internal/model"
)

// RegistrationRepo provides CRUD operations for event registrations.
// The table carries a unique key on (event_id, user_id) so a user
// never owns more than one row per event.
type RegistrationRepo struct {
	db *sql.DB
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

const registrationColumns = `r.id, r.event_id, r.user_id, r.user_name, r.user_email, r.seats_booked, r.registered_at`

func scanRegistration(row rowScanner) (*model.Registration, error) {
	var reg model.Registration
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.UserName, &reg.UserEmail,
		&reg.SeatsBooked, &reg.RegisteredAt); err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetRegistration returns the registration of userID on eventID or
// ErrRegistrationNotFound.
func (r *RegistrationRepo) GetRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM event_registrations r WHERE r.event_id = ? AND r.user_id = ?`
	reg, err := scanRegistration(conn(ctx, r.db).QueryRowContext(ctx, q, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

// CreateRegistration inserts reg.  A concurrent insert for the same
// (event, user) pair surfaces as ErrConflict.
func (r *RegistrationRepo) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	const q = `INSERT INTO event_registrations (id, event_id, user_id, user_name, user_email, seats_booked, registered_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := conn(ctx, r.db).ExecContext(ctx, q,
		reg.ID, reg.EventID, reg.UserID, reg.UserName, reg.UserEmail, reg.SeatsBooked, reg.RegisteredAt)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// AddSeats merges n more seats into an existing registration as long as
// the total stays within limit.
func (r *RegistrationRepo) AddSeats(ctx context.Context, eventID, userID string, n, limit int) (bool, error) {
	const q = `UPDATE event_registrations SET seats_booked = seats_booked + ?
	           WHERE event_id = ? AND user_id = ? AND seats_booked + ? <= ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, n, eventID, userID, n, limit)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// DeleteRegistration removes the registration of userID on eventID if
// it still holds seats seats.  The DELETE reads the latest committed
// row, so a merge committed after the caller's read makes it match
// nothing instead of dropping seats that were never released.
func (r *RegistrationRepo) DeleteRegistration(ctx context.Context, eventID, userID string, seats int) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM event_registrations WHERE event_id = ? AND user_id = ? AND seats_booked = ?`,
		eventID, userID, seats)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ListRegistrationsByUser returns all registrations of a user joined
// with their events, ordered by event date ascending.  When no
// registrations exist, an empty slice is returned.
func (r *RegistrationRepo) ListRegistrationsByUser(ctx context.Context, userID string) ([]model.RegistrationWithEvent, error) {
	q := `SELECT ` + registrationColumns + `, ` + eventColumns + `
	      FROM event_registrations r
	      JOIN events e ON e.id = r.event_id
	      WHERE r.user_id = ?
	      ORDER BY e.date ASC, e.time ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RegistrationWithEvent{}
	for rows.Next() {
		var item model.RegistrationWithEvent
		ev, err := scanEvent(joinedRow{rows: rows, head: []any{
			&item.ID, &item.EventID, &item.UserID, &item.UserName, &item.UserEmail,
			&item.SeatsBooked, &item.RegisteredAt,
		}})
		if err != nil {
			return nil, err
		}
		item.Event = *ev
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRegistrationsByEvent returns all registrations of an event ordered
// by registration time.
func (r *RegistrationRepo) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM event_registrations r WHERE r.event_id = ? ORDER BY r.registered_at ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// joinedRow prepends fixed destinations to a Scan call so scanEvent can
// be reused on rows that start with other columns.
type joinedRow struct {
	rows *sql.Rows
	head []any
}

func (j joinedRow) Scan(dest ...any) error {
	return j.rows.Scan(append(append([]any{}, j.head...), dest...)...)
}
