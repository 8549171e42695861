package auth

import (
	"context"

	"github.com/expertdesk/api/internal/httpx"
	"github.com/expertdesk/api/internal/validation"
)

// --- DTOs ---

// VerifyEmailRequest defines the structure for confirming an email with a
// 6-digit code.
type VerifyEmailRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6,numeric"`
	}
}

type VerifyEmailResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

type ResendVerificationRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

type ResendVerificationResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// --- Handlers ---

// VerifyEmailHandler validates the 6-digit code and activates the account.
func (h *Handler) VerifyEmailHandler(ctx context.Context, input *VerifyEmailRequest) (*VerifyEmailResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.VerifyEmail(ctx, input.Body.Email, input.Body.Code); err != nil {
		h.logger.Warn("email verification failed", "email", input.Body.Email, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("email verified", "email", input.Body.Email)
	resp := &VerifyEmailResponse{}
	resp.Body.Message = "Email verified. You can now log in."
	return resp, nil
}

// ResendVerificationHandler re-sends the verification code. The response is
// identical whether or not the email belongs to an unverified account, to
// prevent enumeration.
func (h *Handler) ResendVerificationHandler(ctx context.Context, input *ResendVerificationRequest) (*ResendVerificationResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ResendVerification(ctx, input.Body.Email); err != nil {
		// Log the real error but keep the response generic.
		h.logger.Error("failed to resend verification", "email", input.Body.Email, "error", err)
	}

	resp := &ResendVerificationResponse{}
	resp.Body.Message = "If that email needs verification, a new code has been sent."
	return resp, nil
}
