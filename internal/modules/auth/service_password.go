package auth

import (
	"context"
	"errors"

	"github.com/expertdesk/api/internal/notification"
	"github.com/expertdesk/api/internal/notification/templates"
)

// ForgotPassword issues and sends a password-reset code. The caller always
// sees generic success; an unknown email does nothing, and the responses are
// indistinguishable either way.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		s.logger.Error("forgot password: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	code, err := s.otps.Issue(ctx, user.ID, PurposePasswordReset)
	if err != nil {
		return err
	}

	go func() {
		data := templates.ResetPasswordData{
			Name:         user.Name,
			Code:         code,
			SupportEmail: s.config.SMTP.From,
		}
		if err := notification.SendTemplate(ctx, s.notifier, templates.ResetPassword, user.Email,
			[]notification.Channel{notification.ChannelEmail}, notification.PriorityHigh, data); err != nil {
			s.logger.Error("failed to send password reset email", "user_id", user.ID, "error", err)
		}
	}()

	return nil
}

// ResetPassword consumes a password-reset code, replaces the password hash
// and revokes every refresh token for the user. A reset assumes the old
// credentials may be compromised, so all sessions die; the user is not
// auto-logged-in.
func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	ok, userID, err := s.otps.VerifyByEmail(ctx, email, code, PurposePasswordReset)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", "error", err)
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		s.logger.Error("failed to update password", "user_id", userID, "error", err)
		return ErrInternal.WithCause(err)
	}

	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke sessions after password reset", "user_id", userID, "error", err)
		return err
	}

	s.logger.Info("password reset completed", "user_id", userID)
	return nil
}

// ChangePassword replaces the password for an authenticated user after
// re-checking the current one. Unlike ResetPassword it assumes no compromise
// and leaves other sessions alone.
func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInternal.WithCause(err)
	}

	if !checkPasswordHash(currentPassword, user.PasswordHash) {
		return ErrPasswordMismatch
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", "error", err)
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		s.logger.Error("failed to update password", "user_id", userID, "error", err)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}
