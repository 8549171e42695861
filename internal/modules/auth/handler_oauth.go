package auth

import (
	"context"
	"net/http"

	"github.com/expertdesk/api/internal/httpx"
)

// --- DTOs ---

// OAuthLoginRequest names the provider in the URL path.
type OAuthLoginRequest struct {
	Provider string `path:"provider"`
}

// OAuthLoginResponse hands the provider consent URL to the frontend, which
// performs the actual redirect.
type OAuthLoginResponse struct {
	Body struct {
		RedirectURL string `json:"redirectUrl"`
	}
}

// OAuthCallbackRequest defines the query parameters sent back by the
// provider.
type OAuthCallbackRequest struct {
	Provider string `path:"provider"`
	Code     string `query:"code"`
	State    string `query:"state"`
}

// OAuthCallbackResponse is a full session, same shape as a password login.
type OAuthCallbackResponse struct {
	SetCookies []*http.Cookie `header:"Set-Cookie"`
	Body       SessionBody
}

// --- Handlers ---

// OAuthLoginHandler starts the OAuth flow for the named provider.
func (h *Handler) OAuthLoginHandler(ctx context.Context, input *OAuthLoginRequest) (*OAuthLoginResponse, error) {
	h.logger.Info("initiating oauth login", "provider", input.Provider)

	redirectURL, err := h.service.InitiateOAuthLogin(ctx, input.Provider)
	if err != nil {
		h.logger.Warn("failed to initiate oauth login", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthLoginResponse{}
	resp.Body.RedirectURL = redirectURL
	return resp, nil
}

// OAuthCallbackHandler exchanges the provider code for a session.
func (h *Handler) OAuthCallbackHandler(ctx context.Context, input *OAuthCallbackRequest) (*OAuthCallbackResponse, error) {
	h.logger.Info("handling oauth callback", "provider", input.Provider)

	success, err := h.service.CompleteOAuthLogin(ctx, input.Provider, input.State, input.Code)
	if err != nil {
		h.logger.Warn("oauth callback failed", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("oauth login successful", "user_id", success.User.ID)
	return &OAuthCallbackResponse{
		SetCookies: h.sessionCookies(success.Tokens),
		Body:       h.sessionBody(success),
	}, nil
}
