package auth

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
)

// RecordLoginAttempt inserts an audit row. Callers treat failures here as
// best-effort: a broken audit trail must never fail the login itself.
func (r *repository) RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error {
	if attempt.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		attempt.ID = id.String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}

	query, args, err := r.psql.Insert("login_attempts").
		Columns("id", "user_id", "email", "success", "ip_address", "user_agent", "created_at").
		Values(attempt.ID, attempt.UserID, attempt.Email, attempt.Success,
			attempt.IPAddress, attempt.UserAgent, attempt.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// ListLoginAttempts returns the most recent attempts for a user.
func (r *repository) ListLoginAttempts(ctx context.Context, userID string, limit int) ([]*LoginAttempt, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := r.psql.Select("id", "user_id", "email", "success", "ip_address", "user_agent", "created_at").
		From("login_attempts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var attempts []*LoginAttempt
	if err := pgxscan.Select(ctx, r.db, &attempts, query, args...); err != nil {
		return nil, err
	}
	return attempts, nil
}
