package auth

import (
	"context"
	"time"

	"github.com/expertdesk/api/internal/contextx"
)

// UserStatus is the account lifecycle state. Accounts are never hard-deleted;
// closing an account transitions it to DEACTIVATED.
type UserStatus string

const (
	StatusActive      UserStatus = "ACTIVE"
	StatusSuspended   UserStatus = "SUSPENDED"
	StatusDeactivated UserStatus = "DEACTIVATED"
	StatusPending     UserStatus = "PENDING"
)

// User is the identity anchor for the auth module.
//
// PasswordHash is empty for externally-authenticated accounts (OAuth); such
// accounts can never log in with a password because bcrypt comparison against
// an empty hash always fails.
type User struct {
	ID            string     `db:"id"`
	Name          string     `db:"name"`
	Email         string     `db:"email"`
	Phone         *string    `db:"phone"`
	PasswordHash  string     `db:"password_hash"`
	Role          Role       `db:"role"`
	Status        UserStatus `db:"status"`
	EmailVerified bool       `db:"email_verified"`
	LastLoginAt   *time.Time `db:"last_login_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// RefreshToken is an opaque, store-backed capability record. The token string
// is the lookup key; rotation creates a new row and revokes the old one, rows
// are never mutated to represent a different token.
type RefreshToken struct {
	Token     string     `db:"token"`
	UserID    string     `db:"user_id"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Usable reports whether the token can still mint a new pair.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

// OTPPurpose scopes a one-time passcode to the flow that issued it.
type OTPPurpose string

const (
	PurposeEmailVerification OTPPurpose = "email_verification"
	PurposePhoneVerification OTPPurpose = "phone_verification"
	PurposePasswordReset     OTPPurpose = "password_reset"
)

// OTPCode is a single-use 6-digit numeric code bound to a user and purpose.
// At most one live (unused, unexpired) code exists per (user, purpose);
// issuing a new code marks any prior live code used rather than deleting it,
// preserving the audit trail.
type OTPCode struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Code      string     `db:"code"`
	Purpose   OTPPurpose `db:"purpose"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// LoginAttempt is a best-effort audit record. Writing it must never fail the
// login itself.
type LoginAttempt struct {
	ID        string    `db:"id"`
	UserID    *string   `db:"user_id"`
	Email     string    `db:"email"`
	Success   bool      `db:"success"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	CreatedAt time.Time `db:"created_at"`
}

// Identity is the resolved caller attached to the request context by the
// authorization gate.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// IdentityFromContext returns the caller identity attached by the
// authorization gate, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(contextx.IdentityKey).(*Identity)
	return identity, ok
}

// TokenPair is what login and refresh hand back to clients.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access-token lifetime in seconds, for client-side
	// countdown UX.
	ExpiresIn int64
}
