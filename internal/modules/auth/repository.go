package auth

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/expertdesk/api/internal/database"
)

// Repository defines the persistence operations backing the auth module.
// This abstraction keeps the services independent of the database
// implementation and lets tests substitute an in-memory store.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByPhone(ctx context.Context, phone string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	UpdateUserPassword(ctx context.Context, userID string, newPasswordHash string) error
	UpdateUserLastLogin(ctx context.Context, userID string, at time.Time) error

	// Refresh tokens
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	// RevokeRefreshToken conditionally stamps revoked_at and reports whether
	// this call won the race (affected a not-yet-revoked row).
	RevokeRefreshToken(ctx context.Context, token string, at time.Time) (bool, error)
	RevokeAllRefreshTokens(ctx context.Context, userID string, at time.Time) error
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteDeadRefreshTokens(ctx context.Context, now time.Time) (int64, error)
	ListActiveRefreshTokens(ctx context.Context, userID string, now time.Time) ([]*RefreshToken, error)

	// OTP codes
	CreateOTP(ctx context.Context, code *OTPCode) error
	// InvalidateLiveOTPs marks every live code for (user, purpose) as used.
	InvalidateLiveOTPs(ctx context.Context, userID string, purpose OTPPurpose, at time.Time) error
	// ConsumeOTP atomically marks the matching live code used and reports
	// whether one was found; a code can never be consumed twice.
	ConsumeOTP(ctx context.Context, userID, code string, purpose OTPPurpose, now time.Time) (bool, error)
	DeleteDeadOTPs(ctx context.Context, now time.Time) (int64, error)

	// Login attempts (best-effort audit)
	RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error
	ListLoginAttempts(ctx context.Context, userID string, limit int) ([]*LoginAttempt, error)

	// OAuth states
	InsertOAuthState(ctx context.Context, state *OAuthState) error
	GetOAuthState(ctx context.Context, state string) (*OAuthState, error)
	DeleteOAuthState(ctx context.Context, state string) error
	DeleteExpiredOAuthStates(ctx context.Context, now time.Time) error
}

// repository implements Repository using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new auth repository with the given database handle.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}
