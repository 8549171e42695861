package auth

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// CreateOTP inserts a new OTP row.
func (r *repository) CreateOTP(ctx context.Context, code *OTPCode) error {
	if code.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		code.ID = id.String()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}

	query, args, err := r.psql.Insert("otp_codes").
		Columns("id", "user_id", "code", "purpose", "expires_at", "used_at", "created_at").
		Values(code.ID, code.UserID, code.Code, string(code.Purpose),
			code.ExpiresAt, code.UsedAt, code.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// InvalidateLiveOTPs marks every live code for (user, purpose) as used.
// Supersession is a soft invalidate, not a delete, so the audit trail of
// issued codes survives.
func (r *repository) InvalidateLiveOTPs(ctx context.Context, userID string, purpose OTPPurpose, at time.Time) error {
	query, args, err := r.psql.Update("otp_codes").
		Set("used_at", at).
		Where(squirrel.Eq{"user_id": userID, "purpose": string(purpose)}).
		Where("used_at IS NULL").
		Where(squirrel.Gt{"expires_at": at}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// ConsumeOTP marks the matching live code used in a single conditional
// update. The affected-row count enforces single use: a code that already
// verified once can never verify again, even under concurrent attempts.
func (r *repository) ConsumeOTP(ctx context.Context, userID, code string, purpose OTPPurpose, now time.Time) (bool, error) {
	query, args, err := r.psql.Update("otp_codes").
		Set("used_at", now).
		Where(squirrel.Eq{"user_id": userID, "code": code, "purpose": string(purpose)}).
		Where("used_at IS NULL").
		Where(squirrel.Gt{"expires_at": now}).
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

// DeleteDeadOTPs removes rows that are expired or consumed.
func (r *repository) DeleteDeadOTPs(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := r.psql.Delete("otp_codes").
		Where(squirrel.Or{
			squirrel.LtOrEq{"expires_at": now},
			squirrel.NotEq{"used_at": nil},
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
