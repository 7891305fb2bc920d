package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/estate/internal/apperror"
	"github.com/sakif/estate/internal/model"
	"github.com/sakif/estate/internal/repository"
)

// UserDB implements repository.UserRepository on top of the shared pool.
type UserDB struct {
	conn *sql.DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a new user. The ID and timestamps are generated here so
// the caller gets the canonical record back in-place.
//
// A UNIQUE violation on the email column is translated to
// apperror.ErrConflict — "duplicate email" is a business outcome the
// service layer reports to the client, not an internal failure.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Avatar == "" {
		user.Avatar = model.DefaultAvatar
	}

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, avatar, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.Avatar,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User already exists!")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getOne(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email — the lookup used by sign-in and by
// the Google upsert. Returns apperror.ErrNotFound if no account exists.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getOne(ctx, `WHERE email = ?`, email)
}

func (u *UserDB) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	var usr model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, username, email, avatar, password_hash, created_at, updated_at
		 FROM users `+where, arg,
	).Scan(
		&usr.ID,
		&usr.Username,
		&usr.Email,
		&usr.Avatar,
		&usr.PasswordHash,
		&usr.CreatedAt,
		&usr.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("%v", arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	return &usr, nil
}

// Update persists the full user record. The service layer is responsible
// for having merged partial fields into a fetched record first.
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, avatar = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.Avatar,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User already exists!")
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) Delete(ctx context.Context, id string) error {
	res, err := u.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
// modernc.org/sqlite doesn't export a typed error for this, so we match the
// message ("UNIQUE constraint failed: users.email").
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
