package auth

import (
	"context"
	"time"

	"github.com/expertdesk/api/internal/httpx"
	"github.com/expertdesk/api/internal/validation"
)

// --- DTOs ---

type MeResponse struct {
	Body struct {
		User *UserPayload `json:"user"`
	}
}

// SessionPayload describes one active session without exposing the refresh
// token itself.
type SessionPayload struct {
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ListSessionsResponse struct {
	Body struct {
		Sessions []SessionPayload `json:"sessions"`
	}
}

// LoginAttemptPayload is one row of the login audit trail.
type LoginAttemptPayload struct {
	Email     string    `json:"email"`
	Success   bool      `json:"success"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListLoginAttemptsRequest struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"100"`
}

type ListLoginAttemptsResponse struct {
	Body struct {
		Attempts []LoginAttemptPayload `json:"attempts"`
	}
}

type GetUserRequest struct {
	ID string `path:"id" format:"uuid"`
}

type GetUserResponse struct {
	Body struct {
		User *UserPayload `json:"user"`
	}
}

// UpdateUserRoleRequest changes a user's role; restricted to admins, with
// extra guards in the service layer.
type UpdateUserRoleRequest struct {
	ID   string `path:"id" format:"uuid"`
	Body struct {
		Role string `json:"role" validate:"required,oneof=CUSTOMER EXPERT ANALYST ADMIN SUPERADMIN"`
	}
}

type UpdateUserRoleResponse struct {
	Body struct {
		User *UserPayload `json:"user"`
	}
}

// UpdateUserStatusRequest suspends, deactivates or reactivates a user.
// PENDING is not settable by hand; it only exists before email verification.
type UpdateUserStatusRequest struct {
	ID   string `path:"id" format:"uuid"`
	Body struct {
		Status string `json:"status" validate:"required,oneof=ACTIVE SUSPENDED DEACTIVATED"`
	}
}

type UpdateUserStatusResponse struct {
	Body struct {
		User *UserPayload `json:"user"`
	}
}

// --- Handlers ---

// MeHandler returns the authenticated user.
func (h *Handler) MeHandler(ctx context.Context, _ *struct{}) (*MeResponse, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, httpx.UnauthorizedProblem(ctx, "missing identity", false)
	}

	user, err := h.service.GetUser(ctx, identity.UserID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &MeResponse{}
	resp.Body.User = toUserPayload(user)
	return resp, nil
}

// ListSessionsHandler lists the caller's active sessions.
func (h *Handler) ListSessionsHandler(ctx context.Context, _ *struct{}) (*ListSessionsResponse, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, httpx.UnauthorizedProblem(ctx, "missing identity", false)
	}

	sessions, err := h.service.ListSessions(ctx, identity.UserID)
	if err != nil {
		h.logger.Error("failed to list sessions", "user_id", identity.UserID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ListSessionsResponse{}
	resp.Body.Sessions = make([]SessionPayload, 0, len(sessions))
	for _, s := range sessions {
		resp.Body.Sessions = append(resp.Body.Sessions, SessionPayload{
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		})
	}
	return resp, nil
}

// ListLoginAttemptsHandler lists the caller's recent login attempts.
func (h *Handler) ListLoginAttemptsHandler(ctx context.Context, input *ListLoginAttemptsRequest) (*ListLoginAttemptsResponse, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, httpx.UnauthorizedProblem(ctx, "missing identity", false)
	}

	attempts, err := h.service.ListLoginAttempts(ctx, identity.UserID, input.Limit)
	if err != nil {
		h.logger.Error("failed to list login attempts", "user_id", identity.UserID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ListLoginAttemptsResponse{}
	resp.Body.Attempts = make([]LoginAttemptPayload, 0, len(attempts))
	for _, a := range attempts {
		resp.Body.Attempts = append(resp.Body.Attempts, LoginAttemptPayload{
			Email:     a.Email,
			Success:   a.Success,
			IPAddress: a.IPAddress,
			UserAgent: a.UserAgent,
			CreatedAt: a.CreatedAt,
		})
	}
	return resp, nil
}

// GetUserHandler returns a user by id. Route access is limited to the owner
// or an admin by middleware.
func (h *Handler) GetUserHandler(ctx context.Context, input *GetUserRequest) (*GetUserResponse, error) {
	user, err := h.service.GetUser(ctx, input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &GetUserResponse{}
	resp.Body.User = toUserPayload(user)
	return resp, nil
}

// UpdateUserRoleHandler changes a user's role.
func (h *Handler) UpdateUserRoleHandler(ctx context.Context, input *UpdateUserRoleRequest) (*UpdateUserRoleResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, httpx.UnauthorizedProblem(ctx, "missing identity", false)
	}

	user, err := h.service.UpdateUserRole(ctx, *identity, input.ID, Role(input.Body.Role))
	if err != nil {
		h.logger.Warn("role update failed", "actor", identity.UserID, "target", input.ID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("role updated", "actor", identity.UserID, "target", input.ID, "role", user.Role)
	resp := &UpdateUserRoleResponse{}
	resp.Body.User = toUserPayload(user)
	return resp, nil
}

// UpdateUserStatusHandler changes a user's status.
func (h *Handler) UpdateUserStatusHandler(ctx context.Context, input *UpdateUserStatusRequest) (*UpdateUserStatusResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, httpx.UnauthorizedProblem(ctx, "missing identity", false)
	}

	user, err := h.service.UpdateUserStatus(ctx, *identity, input.ID, UserStatus(input.Body.Status))
	if err != nil {
		h.logger.Warn("status update failed", "actor", identity.UserID, "target", input.ID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("status updated", "actor", identity.UserID, "target", input.ID, "status", user.Status)
	resp := &UpdateUserStatusResponse{}
	resp.Body.User = toUserPayload(user)
	return resp, nil
}
