package auth

import (
	"context"
	"errors"
)

// GetUser resolves a user by id.
func (s *service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal.WithCause(err)
	}
	return user, nil
}

// ListSessions returns the user's live refresh tokens, newest first.
func (s *service) ListSessions(ctx context.Context, userID string) ([]*RefreshToken, error) {
	sessions, err := s.repo.ListActiveRefreshTokens(ctx, userID, s.now())
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	return sessions, nil
}

// ListLoginAttempts returns the user's recent login attempts.
func (s *service) ListLoginAttempts(ctx context.Context, userID string, limit int) ([]*LoginAttempt, error) {
	attempts, err := s.repo.ListLoginAttempts(ctx, userID, limit)
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	return attempts, nil
}

// UpdateUserRole changes a user's role. Only a SUPERADMIN may touch a
// SUPERADMIN account, and nobody may grant a role above their own.
func (s *service) UpdateUserRole(ctx context.Context, actor Identity, targetID string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, ErrForbidden.WithDetail("unknown role")
	}

	target, err := s.repo.FindUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal.WithCause(err)
	}

	if target.Role == RoleSuperAdmin && !HasHigherOrEqualRole(actor.Role, RoleSuperAdmin) {
		return nil, ErrForbidden.WithDetail("only a superadmin may alter a superadmin account")
	}
	if !HasHigherOrEqualRole(actor.Role, role) {
		return nil, ErrForbidden.WithDetail("cannot grant a role above your own")
	}

	target.Role = role
	if err := s.repo.UpdateUser(ctx, target); err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("user role updated", "user_id", target.ID, "role", role, "actor_id", actor.UserID)
	return target, nil
}

// UpdateUserStatus transitions an account's lifecycle state. Suspension and
// deactivation also cut off the refresh capability; already-issued access
// tokens die at their own expiry, which the gate's store re-check shortens to
// the next request.
func (s *service) UpdateUserStatus(ctx context.Context, actor Identity, targetID string, status UserStatus) (*User, error) {
	switch status {
	case StatusActive, StatusSuspended, StatusDeactivated:
	default:
		return nil, ErrForbidden.WithDetail("unknown status")
	}

	target, err := s.repo.FindUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal.WithCause(err)
	}

	if target.Role == RoleSuperAdmin && !HasHigherOrEqualRole(actor.Role, RoleSuperAdmin) {
		return nil, ErrForbidden.WithDetail("only a superadmin may alter a superadmin account")
	}

	target.Status = status
	if err := s.repo.UpdateUser(ctx, target); err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	if status == StatusSuspended || status == StatusDeactivated {
		if err := s.tokens.RevokeAllForUser(ctx, target.ID); err != nil {
			s.logger.Error("failed to revoke sessions on status change", "user_id", target.ID, "error", err)
		}
	}

	s.logger.Info("user status updated", "user_id", target.ID, "status", status, "actor_id", actor.UserID)
	return target, nil
}
