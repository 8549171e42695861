package auth

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically deletes refresh-token, OTP and OAuth-state rows that
// can never be used again. It is purely hygiene: expiry and revocation are
// enforced at read time, so a missed sweep never extends a session.
type Sweeper struct {
	tokens   *TokenService
	otps     *OTPService
	repo     Repository
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper with the given interval.
func NewSweeper(tokens *TokenService, otps *OTPService, repo Repository, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		tokens:   tokens,
		otps:     otps,
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	tokensRemoved, err := s.tokens.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("refresh token sweep failed", "error", err)
	}
	otpsRemoved, err := s.otps.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("otp sweep failed", "error", err)
	}
	if err := s.repo.DeleteExpiredOAuthStates(ctx, time.Now()); err != nil {
		s.logger.Error("oauth state sweep failed", "error", err)
	}
	if tokensRemoved > 0 || otpsRemoved > 0 {
		s.logger.Info("swept dead auth rows", "refresh_tokens", tokensRemoved, "otp_codes", otpsRemoved)
	}
}
