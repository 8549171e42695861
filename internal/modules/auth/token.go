package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/expertdesk/api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures are distinguished so callers can react
// differently: an expired token is worth a silent refresh, a bad signature
// forces re-login.
var (
	ErrTokenExpired = errors.New("access token expired")
	ErrTokenInvalid = errors.New("access token invalid")
)

// AccessClaims is the payload embedded in a signed access token. The role and
// email are convenience claims; the authorization gate re-resolves the user
// from the store rather than trusting them blindly.
type AccessClaims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies short-lived signed access tokens and
// manages long-lived opaque refresh tokens in the store.
type TokenService struct {
	repo   Repository
	cfg    *config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewTokenService constructs a TokenService. Lifetimes and the signing secret
// come from the injected config, never from process environment.
func NewTokenService(repo Repository, cfg *config.AuthConfig, logger *slog.Logger) *TokenService {
	return &TokenService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *TokenService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// AccessTokenTTL exposes the configured access-token lifetime.
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

// MintAccessToken signs a stateless HS256 token embedding the user's
// identity and role claims. No side effects beyond CPU-bound signing.
func (s *TokenService) MintAccessToken(userID, email string, role Role) (string, error) {
	now := s.now()
	claims := &AccessClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken checks signature and expiry only; it never touches the
// store. Expiry is reported as ErrTokenExpired, every other failure as
// ErrTokenInvalid.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// MintRefreshToken generates an unguessable opaque token, persists its row
// and returns the raw value. The raw token is the lookup key; the client is
// the only other holder.
func (s *TokenService) MintRefreshToken(ctx context.Context, userID string) (string, error) {
	raw, err := randomOpaque(32)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now()
	rt := &RefreshToken{
		Token:     raw,
		UserID:    userID,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateRefreshToken(ctx, rt); err != nil {
		return "", fmt.Errorf("persist refresh token: %w", err)
	}
	return raw, nil
}

// ConsumeRefreshToken validates a presented refresh token and returns the
// owning user id. It does not revoke on read; rotation is the caller's
// responsibility. Rows discovered expired are lazily deleted.
func (s *TokenService) ConsumeRefreshToken(ctx context.Context, token string) (string, error) {
	rt, err := s.repo.FindRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", ErrInternal.WithCause(err)
	}

	now := s.now()
	if !rt.ExpiresAt.After(now) {
		// Lazy GC on read.
		if delErr := s.repo.DeleteRefreshToken(ctx, token); delErr != nil {
			s.logger.Warn("failed to delete expired refresh token", "error", delErr)
		}
		return "", ErrInvalidRefreshToken
	}
	if rt.RevokedAt != nil {
		return "", ErrInvalidRefreshToken
	}
	return rt.UserID, nil
}

// RotateRefreshToken revokes the presented token and mints a replacement in
// one step. The conditional revoke is the replay gate: when two requests race
// with the same token, only the one that observes "not yet revoked" gets a
// new pair.
func (s *TokenService) RotateRefreshToken(ctx context.Context, token, userID string) (string, error) {
	won, err := s.repo.RevokeRefreshToken(ctx, token, s.now())
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	if !won {
		return "", ErrInvalidRefreshToken
	}
	return s.MintRefreshToken(ctx, userID)
}

// RevokeRefreshToken is idempotent: revoking an already-revoked or absent
// token is a no-op.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, token string) error {
	if _, err := s.repo.RevokeRefreshToken(ctx, token, s.now()); err != nil {
		return ErrInternal.WithCause(err)
	}
	return nil
}

// RevokeAllForUser cuts off every live refresh token for the user. A token
// minted concurrently with this call may survive until its natural expiry;
// the lockout is eventual, bounded by one token lifetime.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllRefreshTokens(ctx, userID, s.now()); err != nil {
		return ErrInternal.WithCause(err)
	}
	return nil
}

// SweepExpired deletes expired or revoked refresh-token rows and returns the
// count. Retention is operational, not correctness-critical.
func (s *TokenService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteDeadRefreshTokens(ctx, s.now())
}

// randomOpaque returns n bytes of cryptographic randomness as unpadded
// base64url.
func randomOpaque(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
