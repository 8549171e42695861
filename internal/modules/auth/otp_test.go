package auth

import (
	"context"
	"testing"
	"time"
)

func newOTPEnv() (*memRepo, *OTPService, *testClock) {
	env := newTestEnv()
	return env.repo, env.otps, env.clock
}

func TestIssueGeneratesSixDigitCode(t *testing.T) {
	ctx := context.Background()
	_, otps, _ := newOTPEnv()

	code, err := otps.Issue(ctx, "user-1", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code %q length = %d, want 6", code, len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("code %q contains non-digit", code)
		}
	}
}

func TestIssueSupersedesPriorCode(t *testing.T) {
	ctx := context.Background()
	_, otps, _ := newOTPEnv()

	first, err := otps.Issue(ctx, "user-1", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := otps.Issue(ctx, "user-1", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if ok, err := otps.Verify(ctx, "user-1", first, PurposeEmailVerification); err != nil || ok {
		t.Errorf("superseded code verified: ok=%v err=%v", ok, err)
	}
	if ok, err := otps.Verify(ctx, "user-1", second, PurposeEmailVerification); err != nil || !ok {
		t.Errorf("latest code rejected: ok=%v err=%v", ok, err)
	}
}

func TestVerifySingleUse(t *testing.T) {
	ctx := context.Background()
	_, otps, _ := newOTPEnv()

	code, err := otps.Issue(ctx, "user-1", PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if ok, _ := otps.Verify(ctx, "user-1", code, PurposePasswordReset); !ok {
		t.Fatal("first verify failed")
	}
	if ok, _ := otps.Verify(ctx, "user-1", code, PurposePasswordReset); ok {
		t.Fatal("code verified twice")
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	ctx := context.Background()
	_, otps, clock := newOTPEnv()

	code, err := otps.Issue(ctx, "user-1", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.Advance(11 * time.Minute)

	if ok, _ := otps.Verify(ctx, "user-1", code, PurposeEmailVerification); ok {
		t.Fatal("expired code verified")
	}
}

func TestVerifyScopedToPurpose(t *testing.T) {
	ctx := context.Background()
	_, otps, _ := newOTPEnv()

	code, err := otps.Issue(ctx, "user-1", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if ok, _ := otps.Verify(ctx, "user-1", code, PurposePasswordReset); ok {
		t.Fatal("code accepted under a different purpose")
	}
	if ok, _ := otps.Verify(ctx, "user-2", code, PurposeEmailVerification); ok {
		t.Fatal("code accepted for a different user")
	}
	if ok, _ := otps.Verify(ctx, "user-1", code, PurposeEmailVerification); !ok {
		t.Fatal("code rejected for the right user and purpose")
	}
}

func TestVerifyByEmailUnknownIsPlainInvalid(t *testing.T) {
	ctx := context.Background()
	_, otps, _ := newOTPEnv()

	ok, userID, err := otps.VerifyByEmail(ctx, "ghost@example.com", "123456", PurposePasswordReset)
	if err != nil {
		t.Fatalf("VerifyByEmail: %v", err)
	}
	if ok || userID != "" {
		t.Fatalf("unknown email: ok=%v userID=%q, want plain invalid", ok, userID)
	}
}

func TestSweepExpiredOTPs(t *testing.T) {
	ctx := context.Background()
	repo, otps, clock := newOTPEnv()

	used, err := otps.Issue(ctx, "user-1", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if ok, _ := otps.Verify(ctx, "user-1", used, PurposeEmailVerification); !ok {
		t.Fatal("verify failed")
	}

	if _, err := otps.Issue(ctx, "user-2", PurposePasswordReset); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	removed, err := otps.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	// The untouched live code survives the sweep.
	if code := repo.liveOTP("user-2", PurposePasswordReset, clock.Now()); code == "" {
		t.Error("live code removed by sweep")
	}
}
