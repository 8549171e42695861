package auth

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/expertdesk/api/internal/config"
	"github.com/expertdesk/api/internal/notification"
	"golang.org/x/crypto/bcrypt"
)

// memRepo is a mutex-guarded in-memory Repository for service tests. Its
// conditional operations (RevokeRefreshToken, ConsumeOTP) mirror the
// single-statement atomicity of the SQL implementation.
type memRepo struct {
	mu       sync.Mutex
	users    map[string]*User
	tokens   map[string]*RefreshToken
	otps     []*OTPCode
	attempts []*LoginAttempt
	states   map[string]*OAuthState
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:  make(map[string]*User),
		tokens: make(map[string]*RefreshToken),
		states: make(map[string]*OAuthState),
	}
}

// --- Users ---

func (m *memRepo) CreateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memRepo) FindUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) FindUserByPhone(_ context.Context, phone string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone != nil && *u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) FindUserByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) UpdateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return ErrNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memRepo) UpdateUserPassword(_ context.Context, userID, newPasswordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	return nil
}

func (m *memRepo) UpdateUserLastLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

// --- Refresh tokens ---

func (m *memRepo) CreateRefreshToken(_ context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *memRepo) FindRefreshToken(_ context.Context, token string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (m *memRepo) RevokeRefreshToken(_ context.Context, token string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.tokens[token]
	if !ok || rt.RevokedAt != nil {
		return false, nil
	}
	rt.RevokedAt = &at
	return true, nil
}

func (m *memRepo) RevokeAllRefreshTokens(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.UserID == userID && rt.RevokedAt == nil {
			t := at
			rt.RevokedAt = &t
		}
	}
	return nil
}

func (m *memRepo) DeleteRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

func (m *memRepo) DeleteDeadRefreshTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, rt := range m.tokens {
		if !rt.ExpiresAt.After(now) || rt.RevokedAt != nil {
			delete(m.tokens, key)
			n++
		}
	}
	return n, nil
}

func (m *memRepo) ListActiveRefreshTokens(_ context.Context, userID string, now time.Time) ([]*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*RefreshToken
	for _, rt := range m.tokens {
		if rt.UserID == userID && rt.Usable(now) {
			cp := *rt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- OTP codes ---

func (m *memRepo) CreateOTP(_ context.Context, code *OTPCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.otps = append(m.otps, &cp)
	return nil
}

func (m *memRepo) InvalidateLiveOTPs(_ context.Context, userID string, purpose OTPPurpose, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.otps {
		if o.UserID == userID && o.Purpose == purpose && o.UsedAt == nil && o.ExpiresAt.After(at) {
			t := at
			o.UsedAt = &t
		}
	}
	return nil
}

func (m *memRepo) ConsumeOTP(_ context.Context, userID, code string, purpose OTPPurpose, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.otps {
		if o.UserID == userID && o.Code == code && o.Purpose == purpose && o.UsedAt == nil && o.ExpiresAt.After(now) {
			t := now
			o.UsedAt = &t
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) DeleteDeadOTPs(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*OTPCode
	var n int64
	for _, o := range m.otps {
		if !o.ExpiresAt.After(now) || o.UsedAt != nil {
			n++
			continue
		}
		kept = append(kept, o)
	}
	m.otps = kept
	return n, nil
}

// liveOTP returns the plaintext of the single live code for (user, purpose),
// standing in for reading the delivery channel.
func (m *memRepo) liveOTP(userID string, purpose OTPPurpose, now time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.otps {
		if o.UserID == userID && o.Purpose == purpose && o.UsedAt == nil && o.ExpiresAt.After(now) {
			return o.Code
		}
	}
	return ""
}

// --- Login attempts ---

func (m *memRepo) RecordLoginAttempt(_ context.Context, attempt *LoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *attempt
	m.attempts = append(m.attempts, &cp)
	return nil
}

func (m *memRepo) ListLoginAttempts(_ context.Context, userID string, limit int) ([]*LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*LoginAttempt
	for i := len(m.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		a := m.attempts[i]
		if a.UserID != nil && *a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- OAuth states ---

func (m *memRepo) InsertOAuthState(_ context.Context, state *OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[state.State] = &cp
	return nil
}

func (m *memRepo) GetOAuthState(_ context.Context, state string) (*OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[state]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) DeleteOAuthState(_ context.Context, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, state)
	return nil
}

func (m *memRepo) DeleteExpiredOAuthStates(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.states {
		if !s.ExpiresAt.After(now) {
			delete(m.states, key)
		}
	}
	return nil
}

// --- Shared test fixtures ---

// testClock is a mutable clock shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig keeps bcrypt at its minimum cost so tests stay fast.
func testConfig() *config.Config {
	return &config.Config{
		SMTP: config.SMTPConfig{From: "support@example.com"},
		Auth: config.AuthConfig{
			JWTSecret:       "test-signing-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 15 * time.Minute,
			OTPTTL:          10 * time.Minute,
			BcryptCost:      bcrypt.MinCost,
		},
	}
}

// noopNotifier drops every notification.
type noopNotifier struct{}

func (noopNotifier) Send(context.Context, notification.Notification) error { return nil }

// testEnv bundles the full service stack over an in-memory store.
type testEnv struct {
	repo   *memRepo
	tokens *TokenService
	otps   *OTPService
	svc    Service
	clock  *testClock
	cfg    *config.Config
}

func newTestEnv() *testEnv {
	repo := newMemRepo()
	clock := newTestClock()
	cfg := testConfig()
	logger := discardLogger()

	tokens := NewTokenService(repo, &cfg.Auth, logger)
	tokens.WithClock(clock.Now)
	otps := NewOTPService(repo, &cfg.Auth, logger)
	otps.WithClock(clock.Now)

	svc := NewService(&Config{
		Repo:     repo,
		Tokens:   tokens,
		OTPs:     otps,
		Notifier: noopNotifier{},
		Logger:   logger,
		Config:   cfg,
		Clock:    clock.Now,
	})

	return &testEnv{repo: repo, tokens: tokens, otps: otps, svc: svc, clock: clock, cfg: cfg}
}
