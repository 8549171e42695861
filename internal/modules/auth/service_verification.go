package auth

import (
	"context"
	"errors"

	"github.com/expertdesk/api/internal/notification"
	"github.com/expertdesk/api/internal/notification/templates"
)

// VerifyEmail consumes an email-verification code and activates the account.
// An unknown email reports plain ErrInvalidOTP, indistinguishable from a
// wrong code.
func (s *service) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		s.logger.Error("verify email: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	if user.EmailVerified {
		// Already verified - idempotent success.
		return nil
	}

	ok, err := s.otps.Verify(ctx, user.ID, code, PurposeEmailVerification)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}

	user.EmailVerified = true
	if user.Status == StatusPending {
		user.Status = StatusActive
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		s.logger.Error("verify email: update user failed", "user_id", user.ID, "error", err)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("email verified", "user_id", user.ID)
	return nil
}

// ResendVerification issues and sends a fresh verification code. It returns
// nil for unknown or already-verified emails to hide enumeration.
func (s *service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		s.logger.Error("resend verification: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}
	if user.EmailVerified {
		return nil
	}

	code, err := s.otps.Issue(ctx, user.ID, PurposeEmailVerification)
	if err != nil {
		return err
	}
	s.sendVerificationEmail(ctx, user, code)
	return nil
}

// sendVerificationEmail dispatches the code asynchronously. Send failures are
// logged and swallowed so they never fail the primary transition.
func (s *service) sendVerificationEmail(ctx context.Context, user *User, code string) {
	go func() {
		data := templates.VerifyEmailData{
			Name:         user.Name,
			Code:         code,
			SupportEmail: s.config.SMTP.From,
		}
		if err := notification.SendTemplate(ctx, s.notifier, templates.VerifyEmail, user.Email,
			[]notification.Channel{notification.ChannelEmail}, notification.PriorityHigh, data); err != nil {
			s.logger.Error("failed to send verification email", "user_id", user.ID, "error", err)
		}
	}()
}
