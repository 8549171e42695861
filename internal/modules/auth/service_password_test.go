package auth

import (
	"context"
	"errors"
	"testing"
)

func TestForgotPasswordUnknownEmailSucceeds(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	if err := env.svc.ForgotPassword(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
}

func TestResetPasswordRevokesEverySession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := seedActiveUser(t, env, "ada@example.com", "old-password")

	var sessions []string
	for i := 0; i < 3; i++ {
		outcome, err := env.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "old-password"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		sessions = append(sessions, outcome.Success.Tokens.RefreshToken)
	}

	if err := env.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	code := env.repo.liveOTP(user.ID, PurposePasswordReset, env.clock.Now())
	if code == "" {
		t.Fatal("no live reset code issued")
	}

	if err := env.svc.ResetPassword(ctx, "ada@example.com", code, "new-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	// Every pre-existing session is dead.
	for i, token := range sessions {
		if _, err := env.svc.Refresh(ctx, token); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("session %d survived password reset, err = %v", i, err)
		}
	}

	// Old password out, new password in.
	if _, err := env.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "old-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "new-password"}); err != nil {
		t.Errorf("new password login failed: %v", err)
	}
}

func TestResetPasswordWrongCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedActiveUser(t, env, "ada@example.com", "old-password")

	if err := env.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}

	if err := env.svc.ResetPassword(ctx, "ada@example.com", "000000", "new-password"); !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("wrong code err = %v, want ErrInvalidOTP", err)
	}
	// Unknown email fails identically.
	if err := env.svc.ResetPassword(ctx, "ghost@example.com", "123456", "new-password"); !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("unknown email err = %v, want ErrInvalidOTP", err)
	}

	// Password unchanged after the failed attempts.
	if _, err := env.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "old-password"}); err != nil {
		t.Errorf("original password rejected after failed reset: %v", err)
	}
}

func TestResetCodeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := seedActiveUser(t, env, "ada@example.com", "old-password")

	if err := env.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	code := env.repo.liveOTP(user.ID, PurposePasswordReset, env.clock.Now())

	if err := env.svc.ResetPassword(ctx, "ada@example.com", code, "new-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := env.svc.ResetPassword(ctx, "ada@example.com", code, "sneaky-password"); !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("reused code err = %v, want ErrInvalidOTP", err)
	}
}

func TestChangePasswordKeepsSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := seedActiveUser(t, env, "ada@example.com", "old-password")

	outcome, err := env.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "old-password"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	session := outcome.Success.Tokens.RefreshToken

	if err := env.svc.ChangePassword(ctx, user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	// Unlike reset, a deliberate change keeps existing sessions alive.
	if _, err := env.svc.Refresh(ctx, session); err != nil {
		t.Errorf("session died on password change: %v", err)
	}
	if _, err := env.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "new-password"}); err != nil {
		t.Errorf("new password login failed: %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	user := seedActiveUser(t, env, "ada@example.com", "old-password")

	if err := env.svc.ChangePassword(ctx, user.ID, "not-the-password", "new-password"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("err = %v, want ErrPasswordMismatch", err)
	}
	if err := env.svc.ChangePassword(ctx, "no-such-user", "x", "new-password"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}
}
