package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/events-booking/internal/model"
)

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction stored in ctx by WithTx, or db.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// isDuplicate reports whether err is a MySQL unique key violation (1062).
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

// MySQL bundles the per-table repositories behind the Store contract.
type MySQL struct {
	db *sql.DB
	*EventRepo
	*RegistrationRepo
	*UserRepo
	*TokenRepo
}

var _ Store = (*MySQL)(nil)

// NewMySQL returns a Store backed by db.
func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{
		db:               db,
		EventRepo:        NewEventRepo(db),
		RegistrationRepo: NewRegistrationRepo(db),
		UserRepo:         NewUserRepo(db),
		TokenRepo:        NewTokenRepo(db),
	}
}

// WithTx begins a transaction, stores it in the context handed to fn
// and commits when fn returns nil.  Calls made while a transaction is
// already in ctx join it.
func (s *MySQL) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Ping verifies the database is reachable.
func (s *MySQL) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the connection pool.
func (s *MySQL) Close() error { return s.db.Close() }

// Stats computes dashboard counters in a single round trip.
func (s *MySQL) Stats(ctx context.Context, today string) (model.Stats, error) {
	const q = `SELECT
	             (SELECT COUNT(*) FROM events),
	             (SELECT COUNT(*) FROM users),
	             (SELECT COUNT(*) FROM event_registrations),
	             (SELECT COALESCE(SUM(seats_booked), 0) FROM event_registrations),
	             (SELECT COUNT(*) FROM events WHERE date >= ?)`
	var st model.Stats
	err := conn(ctx, s.db).QueryRowContext(ctx, q, today).Scan(
		&st.TotalEvents, &st.TotalUsers, &st.TotalRegistrations, &st.TotalSeatsBooked, &st.UpcomingEvents,
	)
	return st, err
}
