package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var userColumns = []string{
	"id", "name", "email", "phone", "password_hash", "role", "status",
	"email_verified", "last_login_at", "created_at", "updated_at",
}

// CreateUser inserts a new user record.
func (r *repository) CreateUser(ctx context.Context, user *User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query, args, err := r.psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Name, user.Email, user.Phone, user.PasswordHash,
			string(user.Role), string(user.Status), user.EmailVerified,
			user.LastLoginAt, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		return mapUserConflict(err)
	}
	return nil
}

// mapUserConflict translates a unique-constraint violation on the users table
// into the matching domain error. Concurrent signups race past the
// check-then-insert in the service; the loser's insert fails here and must
// still surface as a conflict, not an internal error.
func mapUserConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if strings.Contains(pgErr.ConstraintName, "phone") {
		return ErrPhoneExists.WithCause(err)
	}
	return ErrEmailExists.WithCause(err)
}

// FindUserByEmail retrieves a user by email. Returns ErrNotFound when absent.
func (r *repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.findUser(ctx, squirrel.Eq{"email": email})
}

// FindUserByPhone retrieves a user by phone number. Returns ErrNotFound when absent.
func (r *repository) FindUserByPhone(ctx context.Context, phone string) (*User, error) {
	return r.findUser(ctx, squirrel.Eq{"phone": phone})
}

// FindUserByID retrieves a user by id. Returns ErrNotFound when absent.
func (r *repository) FindUserByID(ctx context.Context, id string) (*User, error) {
	return r.findUser(ctx, squirrel.Eq{"id": id})
}

func (r *repository) findUser(ctx context.Context, condition squirrel.Sqlizer) (*User, error) {
	query, args, err := r.psql.Select(userColumns...).
		From("users").
		Where(condition).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser persists mutable user fields.
func (r *repository) UpdateUser(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now()

	query, args, err := r.psql.Update("users").
		Set("name", user.Name).
		Set("email", user.Email).
		Set("phone", user.Phone).
		Set("role", string(user.Role)).
		Set("status", string(user.Status)).
		Set("email_verified", user.EmailVerified).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserPassword sets a new password hash for a user.
func (r *repository) UpdateUserPassword(ctx context.Context, userID string, newPasswordHash string) error {
	query, args, err := r.psql.Update("users").
		Set("password_hash", newPasswordHash).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserLastLogin stamps last_login_at after a successful login.
func (r *repository) UpdateUserLastLogin(ctx context.Context, userID string, at time.Time) error {
	query, args, err := r.psql.Update("users").
		Set("last_login_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}
