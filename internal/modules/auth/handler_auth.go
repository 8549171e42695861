package auth

import (
	"context"
	"net/http"

	"github.com/expertdesk/api/internal/contextx"
	"github.com/expertdesk/api/internal/httpx"
	"github.com/expertdesk/api/internal/validation"
)

// --- DTOs ---

// SignupRequest defines the structure for the signup request body.
type SignupRequest struct {
	Body struct {
		Name            string  `json:"name" validate:"required,min=2,max=100"`
		Email           string  `json:"email" validate:"required,email"`
		Phone           *string `json:"phone,omitempty" validate:"omitempty,e164"`
		Password        string  `json:"password" validate:"required,min=8,max=72"`
		ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	}
}

// SignupResponse defines the structure for a successful signup response. No
// tokens are issued here; the account stays pending until the emailed code
// is verified.
type SignupResponse struct {
	Body struct {
		User    *UserPayload `json:"user"`
		Message string       `json:"message"`
	}
}

// LoginRequest defines the structure for the login request body. The
// User-Agent header is captured for the login audit trail.
type LoginRequest struct {
	UserAgent string `header:"User-Agent"`
	Body      struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
}

// LoginResponse is either a full session (cookies plus tokens in the body
// for non-browser clients) or a requiresVerification hint with no tokens.
type LoginResponse struct {
	SetCookies []*http.Cookie `header:"Set-Cookie"`
	Body       SessionBody
}

// SessionBody is the common session payload for login and refresh.
type SessionBody struct {
	RequiresVerification bool         `json:"requiresVerification,omitempty"`
	Message              string       `json:"message,omitempty"`
	User                 *UserPayload `json:"user,omitempty"`
	AccessToken          string       `json:"accessToken,omitempty"`
	RefreshToken         string       `json:"refreshToken,omitempty"`
	SessionExpiresIn     int64        `json:"sessionExpiresIn,omitempty"`
}

// RefreshRequest reads the refresh token from the scoped cookie, with a body
// fallback for API clients that manage tokens themselves.
type RefreshRequest struct {
	CookieToken string `cookie:"refreshToken"`
	Body        struct {
		RefreshToken string `json:"refreshToken,omitempty"`
	} `required:"false"`
}

func (r *RefreshRequest) token() string {
	if r.CookieToken != "" {
		return r.CookieToken
	}
	return r.Body.RefreshToken
}

// RefreshResponse carries the rotated session.
type RefreshResponse struct {
	SetCookies []*http.Cookie `header:"Set-Cookie"`
	Body       SessionBody
}

// LogoutRequest accepts the refresh token like RefreshRequest; logout is
// valid without one (nothing to revoke, cookies still cleared).
type LogoutRequest struct {
	CookieToken string `cookie:"refreshToken"`
	Body        struct {
		RefreshToken string `json:"refreshToken,omitempty"`
	} `required:"false"`
}

func (r *LogoutRequest) token() string {
	if r.CookieToken != "" {
		return r.CookieToken
	}
	return r.Body.RefreshToken
}

// LogoutResponse clears the session cookies.
type LogoutResponse struct {
	SetCookies []*http.Cookie `header:"Set-Cookie"`
	Body       struct {
		Message string `json:"message"`
	}
}

// --- Handlers ---

// SignupHandler handles the account creation endpoint.
func (h *Handler) SignupHandler(ctx context.Context, input *SignupRequest) (*SignupResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	user, err := h.service.Signup(ctx, SignupInput{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Phone:    input.Body.Phone,
		Password: input.Body.Password,
	})
	if err != nil {
		h.logger.Warn("signup failed", "email", input.Body.Email, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("user signed up", "user_id", user.ID)
	resp := &SignupResponse{}
	resp.Body.User = toUserPayload(user)
	resp.Body.Message = "Account created. Check your email for a verification code."
	return resp, nil
}

// LoginHandler handles the email/password login endpoint.
func (h *Handler) LoginHandler(ctx context.Context, input *LoginRequest) (*LoginResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	outcome, err := h.service.Login(ctx, LoginInput{
		Email:     input.Body.Email,
		Password:  input.Body.Password,
		IPAddress: clientIP(ctx),
		UserAgent: input.UserAgent,
	})
	if err != nil {
		h.logger.Warn("login failed", "email", input.Body.Email, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	if outcome.RequiresVerification {
		resp := &LoginResponse{}
		resp.Body.RequiresVerification = true
		resp.Body.Message = "Email not verified. A new verification code has been sent."
		return resp, nil
	}

	h.logger.Info("user logged in", "user_id", outcome.Success.User.ID)
	return &LoginResponse{
		SetCookies: h.sessionCookies(outcome.Success.Tokens),
		Body:       h.sessionBody(outcome.Success),
	}, nil
}

// RefreshHandler rotates the refresh token and issues a new access token.
func (h *Handler) RefreshHandler(ctx context.Context, input *RefreshRequest) (*RefreshResponse, error) {
	success, err := h.service.Refresh(ctx, input.token())
	if err != nil {
		h.logger.Warn("session refresh failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return &RefreshResponse{
		SetCookies: h.sessionCookies(success.Tokens),
		Body:       h.sessionBody(success),
	}, nil
}

// LogoutHandler revokes the presented refresh token and clears cookies.
func (h *Handler) LogoutHandler(ctx context.Context, input *LogoutRequest) (*LogoutResponse, error) {
	if err := h.service.Logout(ctx, input.token()); err != nil {
		h.logger.Error("logout failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &LogoutResponse{SetCookies: h.clearSessionCookies()}
	resp.Body.Message = "Logged out."
	return resp, nil
}

// LogoutAllHandler revokes every refresh token of the authenticated user.
func (h *Handler) LogoutAllHandler(ctx context.Context, _ *struct{}) (*LogoutResponse, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, httpx.UnauthorizedProblem(ctx, "missing identity", false)
	}

	if err := h.service.LogoutAll(ctx, identity.UserID); err != nil {
		h.logger.Error("logout-all failed", "user_id", identity.UserID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("all sessions revoked", "user_id", identity.UserID)
	resp := &LogoutResponse{SetCookies: h.clearSessionCookies()}
	resp.Body.Message = "All sessions logged out."
	return resp, nil
}

func (h *Handler) sessionBody(success *LoginSuccess) SessionBody {
	return SessionBody{
		User:             toUserPayload(success.User),
		AccessToken:      success.Tokens.AccessToken,
		RefreshToken:     success.Tokens.RefreshToken,
		SessionExpiresIn: success.Tokens.ExpiresIn,
	}
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(contextx.ClientIPKey).(string)
	return ip
}
