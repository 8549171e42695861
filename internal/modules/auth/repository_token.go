package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

var refreshTokenColumns = []string{
	"token", "user_id", "expires_at", "revoked_at", "created_at",
}

// CreateRefreshToken inserts a new refresh-token row.
func (r *repository) CreateRefreshToken(ctx context.Context, token *RefreshToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query, args, err := r.psql.Insert("refresh_tokens").
		Columns(refreshTokenColumns...).
		Values(token.Token, token.UserID, token.ExpiresAt, token.RevokedAt, token.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindRefreshToken looks a token row up by its opaque value.
func (r *repository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	query, args, err := r.psql.Select(refreshTokenColumns...).
		From("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rt RefreshToken
	if err := pgxscan.Get(ctx, r.db, &rt, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken stamps revoked_at on the row only if it is not already
// revoked. The affected-row count tells the caller whether it observed the
// token not yet revoked: under concurrent rotation of the same token
// exactly one caller wins.
func (r *repository) RevokeRefreshToken(ctx context.Context, token string, at time.Time) (bool, error) {
	query, args, err := r.psql.Update("refresh_tokens").
		Set("revoked_at", at).
		Where(squirrel.Eq{"token": token}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return false, err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// RevokeAllRefreshTokens stamps revoked_at on every live row for the user.
func (r *repository) RevokeAllRefreshTokens(ctx context.Context, userID string, at time.Time) error {
	query, args, err := r.psql.Update("refresh_tokens").
		Set("revoked_at", at).
		Where(squirrel.Eq{"user_id": userID}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// DeleteRefreshToken removes a single row, used for lazy cleanup when an
// expired token is discovered on read.
func (r *repository) DeleteRefreshToken(ctx context.Context, token string) error {
	query, args, err := r.psql.Delete("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// DeleteDeadRefreshTokens removes rows that are expired or revoked. It only
// touches already-dead rows, so it is safe to run concurrently with every
// other operation.
func (r *repository) DeleteDeadRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := r.psql.Delete("refresh_tokens").
		Where(squirrel.Or{
			squirrel.LtOrEq{"expires_at": now},
			squirrel.NotEq{"revoked_at": nil},
		}).
		ToSql()
	if err != nil {
		return 0, err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// ListActiveRefreshTokens returns the user's live sessions, newest first.
func (r *repository) ListActiveRefreshTokens(ctx context.Context, userID string, now time.Time) ([]*RefreshToken, error) {
	query, args, err := r.psql.Select(refreshTokenColumns...).
		From("refresh_tokens").
		Where(squirrel.Eq{"user_id": userID}).
		Where("revoked_at IS NULL").
		Where(squirrel.Gt{"expires_at": now}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var tokens []*RefreshToken
	if err := pgxscan.Select(ctx, r.db, &tokens, query, args...); err != nil {
		return nil, err
	}
	return tokens, nil
}
