package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// oauthUserInfo holds the standardized user information extracted from a
// provider.
type oauthUserInfo struct {
	ID    string
	Email string
	Name  string
}

func (s *service) googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.config.Google.ClientID,
		ClientSecret: s.config.Google.ClientSecret,
		RedirectURL:  s.config.Google.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
	}
}

// InitiateOAuthLogin generates the provider redirect URL plus a stored
// state/verifier pair for CSRF and PKCE protection.
func (s *service) InitiateOAuthLogin(ctx context.Context, provider string) (string, error) {
	if provider != "google" {
		return "", ErrUnsupportedOAuthProvider.WithDetail(fmt.Sprintf("unsupported oauth provider: %s", provider))
	}

	state, err := randomOpaque(32)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	verifier := oauth2.GenerateVerifier()

	if err := s.repo.InsertOAuthState(ctx, &OAuthState{
		State:     state,
		Provider:  provider,
		Verifier:  verifier,
		ExpiresAt: s.now().Add(5 * time.Minute),
	}); err != nil {
		return "", ErrInternal.WithCause(err)
	}

	url := s.googleOAuthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
	return url, nil
}

// CompleteOAuthLogin verifies the state, exchanges the code, fetches the
// provider profile, provisions a local account when needed, and mints the
// same token pair a password login would.
//
// Provisioned accounts carry an empty password hash (they can only ever
// authenticate through the provider) and start ACTIVE with the email
// considered verified, since the provider attested to it.
func (s *service) CompleteOAuthLogin(ctx context.Context, provider, state, code string) (*LoginSuccess, error) {
	if provider != "google" {
		return nil, ErrUnsupportedOAuthProvider
	}

	st, err := s.repo.GetOAuthState(ctx, state)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrOAuthStateInvalid.WithCause(err)
		}
		return nil, ErrInternal.WithCause(err)
	}
	if s.now().After(st.ExpiresAt) {
		return nil, ErrOAuthStateExpired
	}
	defer func() {
		if err := s.repo.DeleteOAuthState(ctx, state); err != nil {
			s.logger.Warn("failed to delete oauth state", "error", err)
		}
	}()

	conf := s.googleOAuthConfig()
	token, err := conf.Exchange(ctx, code, oauth2.VerifierOption(st.Verifier))
	if err != nil {
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}

	info, err := s.fetchGoogleUserInfo(ctx, conf, token)
	if err != nil {
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}
	if info.Email == "" {
		return nil, ErrOAuthEmailMissing
	}

	user, err := s.resolveOAuthAccount(ctx, info)
	if err != nil {
		return nil, err
	}

	tokens, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	s.logger.Info("user logged in via oauth", "user_id", user.ID, "provider", provider)
	return &LoginSuccess{User: user, Tokens: tokens}, nil
}

// resolveOAuthAccount maps a provider profile to a local account that may
// receive tokens. Unknown emails are provisioned on the spot. A pre-existing
// unverified account is marked verified, and PENDING becomes ACTIVE, because
// the provider attested to the email; without that transition the minted
// tokens would be rejected by the gate and by Refresh.
func (s *service) resolveOAuthAccount(ctx context.Context, info *oauthUserInfo) (*User, error) {
	user, err := s.repo.FindUserByEmail(ctx, info.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, ErrInternal.WithCause(err)
		}
		id, idErr := uuid.NewV7()
		if idErr != nil {
			return nil, ErrInternal.WithCause(idErr)
		}
		user = &User{
			ID:            id.String(),
			Name:          info.Name,
			Email:         info.Email,
			PasswordHash:  "",
			Role:          RoleCustomer,
			Status:        StatusActive,
			EmailVerified: true,
		}
		if createErr := s.repo.CreateUser(ctx, user); createErr != nil {
			s.logger.Error("failed to provision oauth user", "error", createErr)
			return nil, ErrInternal.WithCause(createErr)
		}
		s.logger.Info("user provisioned via oauth", "user_id", user.ID)
		return user, nil
	}

	if user.Status == StatusSuspended || user.Status == StatusDeactivated {
		return nil, ErrAccountNotActive.WithContext(map[string]any{"status": string(user.Status)})
	}

	if !user.EmailVerified {
		user.EmailVerified = true
		if user.Status == StatusPending {
			user.Status = StatusActive
		}
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			s.logger.Error("failed to activate oauth user", "user_id", user.ID, "error", err)
			return nil, ErrInternal.WithCause(err)
		}
		s.logger.Info("account verified via oauth", "user_id", user.ID)
	}
	return user, nil
}

func (s *service) fetchGoogleUserInfo(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*oauthUserInfo, error) {
	client := conf.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("get user info from google: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read user info response: %w", err)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("unmarshal user info: %w", err)
	}

	return &oauthUserInfo{ID: info.ID, Email: info.Email, Name: info.Name}, nil
}
