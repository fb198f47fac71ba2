package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/events-booking/internal/model"
)

// UserRepo mirrors the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, name, password_hash, role, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// CreateUser inserts u.  The password must already be hashed.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// ListUsers returns all users ordered by creation time.
func (r *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateUserRole changes the role of a user.
func (r *UserRepo) UpdateUserRole(ctx context.Context, id string, role model.Role, now time.Time) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE users SET role=?, updated_at=? WHERE id=?", string(role), now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserName changes the display name of a user.
func (r *UserRepo) UpdateUserName(ctx context.Context, id, name string, now time.Time) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE users SET name=?, updated_at=? WHERE id=?", name, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
