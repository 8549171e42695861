package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTokenEnv() (*memRepo, *TokenService, *testClock) {
	env := newTestEnv()
	return env.repo, env.tokens, env.clock
}

func TestMintAndVerifyAccessToken(t *testing.T) {
	_, tokens, _ := newTokenEnv()

	signed, err := tokens.MintAccessToken("user-1", "a@example.com", RoleExpert)
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := tokens.VerifyAccessToken(signed)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("email = %q, want a@example.com", claims.Email)
	}
	if claims.Role != RoleExpert {
		t.Errorf("role = %q, want %q", claims.Role, RoleExpert)
	}
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	_, tokens, clock := newTokenEnv()

	signed, err := tokens.MintAccessToken("user-1", "a@example.com", RoleCustomer)
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	clock.Advance(16 * time.Minute)

	_, err = tokens.VerifyAccessToken(signed)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyAccessTokenTampered(t *testing.T) {
	_, tokens, _ := newTokenEnv()

	if _, err := tokens.VerifyAccessToken("not.a.jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("garbage: err = %v, want ErrTokenInvalid", err)
	}

	// A token signed under a different secret must fail verification.
	otherCfg := testConfig()
	otherCfg.Auth.JWTSecret = "some-other-secret"
	other := NewTokenService(newMemRepo(), &otherCfg.Auth, discardLogger())
	forged, err := other.MintAccessToken("user-1", "a@example.com", RoleCustomer)
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	if _, err := tokens.VerifyAccessToken(forged); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("wrong secret: err = %v, want ErrTokenInvalid", err)
	}
}

func TestConsumeRefreshToken(t *testing.T) {
	ctx := context.Background()
	_, tokens, _ := newTokenEnv()

	raw, err := tokens.MintRefreshToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("MintRefreshToken: %v", err)
	}

	userID, err := tokens.ConsumeRefreshToken(ctx, raw)
	if err != nil {
		t.Fatalf("ConsumeRefreshToken: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want user-1", userID)
	}

	if _, err := tokens.ConsumeRefreshToken(ctx, "no-such-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("unknown token err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestConsumeRefreshTokenExpiredIsDeleted(t *testing.T) {
	ctx := context.Background()
	repo, tokens, clock := newTokenEnv()

	raw, err := tokens.MintRefreshToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("MintRefreshToken: %v", err)
	}

	clock.Advance(16 * time.Minute)

	if _, err := tokens.ConsumeRefreshToken(ctx, raw); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("err = %v, want ErrInvalidRefreshToken", err)
	}
	// Expired row is garbage-collected on read.
	if _, err := repo.FindRefreshToken(ctx, raw); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired token still present after consume, err = %v", err)
	}
}

func TestRotateRefreshTokenReplayFails(t *testing.T) {
	ctx := context.Background()
	_, tokens, _ := newTokenEnv()

	old, err := tokens.MintRefreshToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("MintRefreshToken: %v", err)
	}

	fresh, err := tokens.RotateRefreshToken(ctx, old, "user-1")
	if err != nil {
		t.Fatalf("RotateRefreshToken: %v", err)
	}
	if fresh == old {
		t.Fatal("rotation returned the same token")
	}

	// Replaying the rotated token must fail.
	if _, err := tokens.RotateRefreshToken(ctx, old, "user-1"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replay err = %v, want ErrInvalidRefreshToken", err)
	}
	// The replacement is unaffected.
	if _, err := tokens.ConsumeRefreshToken(ctx, fresh); err != nil {
		t.Fatalf("fresh token unusable after replay attempt: %v", err)
	}
}

func TestRotateRefreshTokenConcurrentOneWinner(t *testing.T) {
	ctx := context.Background()
	_, tokens, _ := newTokenEnv()

	raw, err := tokens.MintRefreshToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("MintRefreshToken: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tokens.RotateRefreshToken(ctx, raw, "user-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
}

func TestRevokeRefreshTokenIdempotent(t *testing.T) {
	ctx := context.Background()
	_, tokens, _ := newTokenEnv()

	raw, err := tokens.MintRefreshToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("MintRefreshToken: %v", err)
	}

	if err := tokens.RevokeRefreshToken(ctx, raw); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := tokens.RevokeRefreshToken(ctx, raw); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if err := tokens.RevokeRefreshToken(ctx, "never-existed"); err != nil {
		t.Fatalf("revoke absent: %v", err)
	}

	if _, err := tokens.ConsumeRefreshToken(ctx, raw); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("revoked token still consumable, err = %v", err)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	_, tokens, _ := newTokenEnv()

	var mine []string
	for i := 0; i < 3; i++ {
		raw, err := tokens.MintRefreshToken(ctx, "user-1")
		if err != nil {
			t.Fatalf("MintRefreshToken: %v", err)
		}
		mine = append(mine, raw)
	}
	other, err := tokens.MintRefreshToken(ctx, "user-2")
	if err != nil {
		t.Fatalf("MintRefreshToken: %v", err)
	}

	if err := tokens.RevokeAllForUser(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}

	for _, raw := range mine {
		if _, err := tokens.ConsumeRefreshToken(ctx, raw); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("user-1 token survived revoke-all, err = %v", err)
		}
	}
	if _, err := tokens.ConsumeRefreshToken(ctx, other); err != nil {
		t.Errorf("user-2 token affected by user-1 revoke-all: %v", err)
	}
}

func TestSweepExpiredRefreshTokens(t *testing.T) {
	ctx := context.Background()
	_, tokens, clock := newTokenEnv()

	stale, err := tokens.MintRefreshToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("MintRefreshToken: %v", err)
	}
	if err := tokens.RevokeRefreshToken(ctx, stale); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}

	clock.Advance(16 * time.Minute)
	live, err := tokens.MintRefreshToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("MintRefreshToken: %v", err)
	}

	removed, err := tokens.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := tokens.ConsumeRefreshToken(ctx, live); err != nil {
		t.Errorf("live token removed by sweep: %v", err)
	}
}
