package auth

import (
	"context"
	"net/http"

	"github.com/expertdesk/api/internal/httpx"
	"github.com/expertdesk/api/internal/validation"
)

// --- DTOs ---

// ForgotPasswordRequest defines the structure for initiating a password reset.
type ForgotPasswordRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

type ForgotPasswordResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// ResetPasswordRequest defines the structure for finalizing a password reset
// with the emailed 6-digit code.
type ResetPasswordRequest struct {
	Body struct {
		Email           string `json:"email" validate:"required,email"`
		Code            string `json:"code" validate:"required,len=6,numeric"`
		Password        string `json:"password" validate:"required,min=8,max=72"`
		ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	}
}

// ResetPasswordResponse clears session cookies: a successful reset revokes
// every session, so the browser's cookies are dead anyway.
type ResetPasswordResponse struct {
	SetCookies []*http.Cookie `header:"Set-Cookie"`
	Body       struct {
		Message string `json:"message"`
	}
}

// ChangePasswordRequest defines the structure for an authenticated password
// change.
type ChangePasswordRequest struct {
	Body struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
		ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
	}
}

type ChangePasswordResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// --- Handlers ---

// ForgotPasswordHandler initiates a password reset. To prevent email
// enumeration the real outcome is logged but never revealed; the client
// always sees the same success response.
func (h *Handler) ForgotPasswordHandler(ctx context.Context, input *ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ForgotPassword(ctx, input.Body.Email); err != nil {
		h.logger.Error("failed to initiate password reset", "email", input.Body.Email, "error", err)
	}

	resp := &ForgotPasswordResponse{}
	resp.Body.Message = "If an account exists for that email, a reset code has been sent."
	return resp, nil
}

// ResetPasswordHandler sets a new password using the emailed code.
func (h *Handler) ResetPasswordHandler(ctx context.Context, input *ResetPasswordRequest) (*ResetPasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ResetPassword(ctx, input.Body.Email, input.Body.Code, input.Body.Password); err != nil {
		h.logger.Warn("password reset failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("password reset completed")
	resp := &ResetPasswordResponse{SetCookies: h.clearSessionCookies()}
	resp.Body.Message = "Password reset. Please log in with your new password."
	return resp, nil
}

// ChangePasswordHandler changes the password of the authenticated user.
// Existing sessions stay valid.
func (h *Handler) ChangePasswordHandler(ctx context.Context, input *ChangePasswordRequest) (*ChangePasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, httpx.UnauthorizedProblem(ctx, "missing identity", false)
	}

	if err := h.service.ChangePassword(ctx, identity.UserID, input.Body.CurrentPassword, input.Body.NewPassword); err != nil {
		h.logger.Warn("password change failed", "user_id", identity.UserID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("password changed", "user_id", identity.UserID)
	resp := &ChangePasswordResponse{}
	resp.Body.Message = "Password changed."
	return resp, nil
}
