package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Signup creates a new PENDING account, issues an email-verification code and
// sends it. No tokens are returned: the account cannot authenticate until the
// email is verified.
func (s *service) Signup(ctx context.Context, input SignupInput) (*User, error) {
	if _, err := s.repo.FindUserByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, ErrInternal.WithCause(err)
	}

	if input.Phone != nil && *input.Phone != "" {
		if _, err := s.repo.FindUserByPhone(ctx, *input.Phone); err == nil {
			return nil, ErrPhoneExists
		} else if !errors.Is(err, ErrNotFound) {
			return nil, ErrInternal.WithCause(err)
		}
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	user := &User{
		ID:            id.String(),
		Name:          input.Name,
		Email:         input.Email,
		Phone:         input.Phone,
		PasswordHash:  hash,
		Role:          RoleCustomer,
		Status:        StatusPending,
		EmailVerified: false,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		// A concurrent signup for the same email or phone loses the insert
		// race after passing the lookups above.
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrPhoneExists) {
			return nil, err
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	code, err := s.otps.Issue(ctx, user.ID, PurposeEmailVerification)
	if err != nil {
		// The account exists; the user can request a resend.
		s.logger.Error("failed to issue verification code", "user_id", user.ID, "error", err)
	} else {
		s.sendVerificationEmail(ctx, user, code)
	}

	s.logger.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// Login authenticates credentials and returns a tagged outcome.
//
// Unknown email and wrong password produce the same ErrInvalidCredentials.
// SUSPENDED and DEACTIVATED accounts are rejected with ErrAccountNotActive
// regardless of credential correctness. An unverified account gets a fresh
// verification code and a RequiresVerification outcome instead of tokens.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginOutcome, error) {
	user, err := s.repo.FindUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to find user by email", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if !checkPasswordHash(input.Password, user.PasswordHash) {
		s.recordAttempt(ctx, &user.ID, input.Email, false, input.IPAddress, input.UserAgent)
		return nil, ErrInvalidCredentials
	}

	if user.Status == StatusSuspended || user.Status == StatusDeactivated {
		return nil, ErrAccountNotActive.WithContext(map[string]any{"status": string(user.Status)})
	}

	if !user.EmailVerified {
		code, issueErr := s.otps.Issue(ctx, user.ID, PurposeEmailVerification)
		if issueErr != nil {
			s.logger.Error("failed to re-issue verification code", "user_id", user.ID, "error", issueErr)
		} else {
			s.sendVerificationEmail(ctx, user, code)
		}
		return &LoginOutcome{RequiresVerification: true}, nil
	}

	tokens, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordAttempt(ctx, &user.ID, input.Email, true, input.IPAddress, input.UserAgent)
	now := s.now()
	if err := s.repo.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	s.logger.Info("user logged in", "user_id", user.ID)
	return &LoginOutcome{Success: &LoginSuccess{User: user, Tokens: tokens}}, nil
}

// Refresh rotates the presented refresh token: the old token is revoked and a
// brand-new pair is minted. A replayed token, one already rotated by the
// legitimate client, loses the conditional revoke and fails.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*LoginSuccess, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	userID, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, ErrInternal.WithCause(err)
	}
	if user.Status != StatusActive {
		return nil, ErrInvalidRefreshToken
	}

	newRefresh, err := s.tokens.RotateRefreshToken(ctx, refreshToken, user.ID)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.MintAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	return &LoginSuccess{
		User: user,
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: newRefresh,
			ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
		},
	}, nil
}

// Logout revokes the presented refresh token. Cookie clearing happens at the
// handler regardless of whether a token was presented.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.RevokeRefreshToken(ctx, refreshToken)
}

// LogoutAll revokes every refresh token the user holds. Already-issued access
// tokens stay verifiable until their own expiry; only the refresh capability
// is cut off.
func (s *service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user logged out everywhere", "user_id", userID)
	return nil
}
