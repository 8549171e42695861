package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/expertdesk/api/internal/config"
	"github.com/expertdesk/api/internal/notification"
	"golang.org/x/crypto/bcrypt"
)

// SignupInput carries the fields needed to create a new account.
type SignupInput struct {
	Name     string
	Email    string
	Phone    *string
	Password string
}

// LoginInput carries credentials plus client metadata for the audit trail.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginSuccess is the happy-path login result.
type LoginSuccess struct {
	User   *User
	Tokens TokenPair
}

// LoginOutcome is a tagged result: exactly one branch is meaningful.
// RequiresVerification is not an error: the credentials were correct, but
// the account cannot receive tokens until the email is verified; a fresh
// verification code has already been re-sent.
type LoginOutcome struct {
	Success              *LoginSuccess
	RequiresVerification bool
}

// Service is the session orchestrator: it composes the token service, the
// OTP service and the store into the user-facing lifecycle operations. It is
// stateless between calls; all coordination happens through the store.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (*LoginOutcome, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginSuccess, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error

	VerifyEmail(ctx context.Context, email, code string) error
	ResendVerification(ctx context.Context, email string) error

	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error

	InitiateOAuthLogin(ctx context.Context, provider string) (redirectURL string, err error)
	CompleteOAuthLogin(ctx context.Context, provider, state, code string) (*LoginSuccess, error)

	GetUser(ctx context.Context, userID string) (*User, error)
	ListSessions(ctx context.Context, userID string) ([]*RefreshToken, error)
	ListLoginAttempts(ctx context.Context, userID string, limit int) ([]*LoginAttempt, error)

	UpdateUserRole(ctx context.Context, actor Identity, targetID string, role Role) (*User, error)
	UpdateUserStatus(ctx context.Context, actor Identity, targetID string, status UserStatus) (*User, error)
}

// service implements the Service interface.
type service struct {
	repo     Repository
	tokens   *TokenService
	otps     *OTPService
	notifier notification.Service
	logger   *slog.Logger
	config   *config.Config
	now      func() time.Time
}

// Config holds the dependencies for the auth service.
type Config struct {
	Repo     Repository
	Tokens   *TokenService
	OTPs     *OTPService
	Notifier notification.Service
	Logger   *slog.Logger
	Config   *config.Config

	// Clock overrides the service clock for deterministic tests. Nil means
	// time.Now.
	Clock func() time.Time
}

// NewService creates a new auth service with the given dependencies.
func NewService(cfg *Config) Service {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     cfg.Repo,
		tokens:   cfg.Tokens,
		otps:     cfg.OTPs,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		config:   cfg.Config,
		now:      now,
	}
}

// mintPair issues a fresh access+refresh pair for the user.
func (s *service) mintPair(ctx context.Context, user *User) (TokenPair, error) {
	access, err := s.tokens.MintAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return TokenPair{}, ErrInternal.WithCause(err)
	}
	refresh, err := s.tokens.MintRefreshToken(ctx, user.ID)
	if err != nil {
		return TokenPair{}, ErrInternal.WithCause(err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}

// recordAttempt writes a login-attempt row, logging and discarding any
// failure at this boundary.
func (s *service) recordAttempt(ctx context.Context, userID *string, email string, success bool, ip, userAgent string) {
	attempt := &LoginAttempt{
		UserID:    userID,
		Email:     email,
		Success:   success,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: s.now(),
	}
	if err := s.repo.RecordLoginAttempt(ctx, attempt); err != nil {
		s.logger.Warn("failed to record login attempt", "email", email, "error", err)
	}
}

// hashPassword uses bcrypt with the configured cost.
func (s *service) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// checkPasswordHash compares a plaintext password with a bcrypt hash. An
// empty stored hash (externally-authenticated account) never matches.
func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
