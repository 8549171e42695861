package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/expertdesk/api/internal/config"
)

// OTPService issues and verifies single-use 6-digit numeric codes bound to a
// user and a purpose. Rate limiting against brute force belongs to the
// transport layer; this service only guarantees single use and supersession.
type OTPService struct {
	repo   Repository
	cfg    *config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewOTPService constructs an OTPService.
func NewOTPService(repo Repository, cfg *config.AuthConfig, logger *slog.Logger) *OTPService {
	return &OTPService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *OTPService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Issue supersedes any live code for (user, purpose), then generates,
// persists and returns a fresh plaintext code for out-of-band delivery.
// After Issue returns, at most one live code exists for the pair.
func (s *OTPService) Issue(ctx context.Context, userID string, purpose OTPPurpose) (string, error) {
	now := s.now()
	if err := s.repo.InvalidateLiveOTPs(ctx, userID, purpose, now); err != nil {
		return "", ErrInternal.WithCause(err)
	}

	code, err := generateNumericCode()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}

	otp := &OTPCode{
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateOTP(ctx, otp); err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return code, nil
}

// Verify consumes the matching live code. It returns false without
// distinguishing wrong code, expired or already used, so responses leak
// nothing about which failure occurred.
func (s *OTPService) Verify(ctx context.Context, userID, code string, purpose OTPPurpose) (bool, error) {
	ok, err := s.repo.ConsumeOTP(ctx, userID, code, purpose, s.now())
	if err != nil {
		return false, ErrInternal.WithCause(err)
	}
	return ok, nil
}

// VerifyByEmail resolves the email first, then delegates to Verify. An
// unknown email reports plain invalid, indistinguishable from a wrong code.
func (s *OTPService) VerifyByEmail(ctx context.Context, email, code string, purpose OTPPurpose) (bool, string, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, "", nil
		}
		return false, "", ErrInternal.WithCause(err)
	}

	ok, err := s.Verify(ctx, user.ID, code, purpose)
	if err != nil {
		return false, "", err
	}
	return ok, user.ID, nil
}

// SweepExpired deletes expired or consumed OTP rows and returns the count.
func (s *OTPService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteDeadOTPs(ctx, s.now())
}

// generateNumericCode draws a uniform 6-digit code in [100000, 999999].
func generateNumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
