package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/expertdesk/api/internal/config"
)

// Cookie names used by browser clients. The access cookie is scoped to the
// whole API; the refresh cookie is scoped to /auth so it only travels on
// refresh and logout calls.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Handler holds the dependencies for the auth module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
	config  *config.Config
}

// NewHandler creates a new handler for the auth module.
func NewHandler(service Service, logger *slog.Logger, cfg *config.Config) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		config:  cfg,
	}
}

// RouteMiddlewares carries the cross-cutting route guards, built in the
// server where both this module and the middleware package are visible.
type RouteMiddlewares struct {
	// Authenticate resolves and attaches the caller identity, or rejects.
	Authenticate func(huma.Context, func(huma.Context))
	// RateLimit guards credential and OTP endpoints against brute force.
	RateLimit func(huma.Context, func(huma.Context))
	// AdminOnly allows only ADMIN and SUPERADMIN.
	AdminOnly func(huma.Context, func(huma.Context))
	// OwnerOrAdmin allows admins, or the user named by the path parameter.
	OwnerOrAdmin func(param string) func(huma.Context, func(huma.Context))
}

// RegisterRoutes sets up the routing for the auth module.
func (h *Handler) RegisterRoutes(api huma.API, mw RouteMiddlewares) {
	// --- Session lifecycle ---
	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/auth/signup",
		Summary:       "Create a new account",
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{mw.RateLimit},
	}, h.SignupHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in with email and password",
		Middlewares: huma.Middlewares{mw.RateLimit},
	}, h.LoginHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/refresh",
		Summary: "Exchange a refresh token for a new session",
	}, h.RefreshHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/logout",
		Summary: "Log out the current session",
	}, h.LogoutHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/auth/logout-all",
		Summary:     "Log out every session of the current user",
		Middlewares: huma.Middlewares{mw.Authenticate},
	}, h.LogoutAllHandler)

	// --- Email verification ---
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/auth/verify-email",
		Summary:     "Verify an email address with a one-time code",
		Middlewares: huma.Middlewares{mw.RateLimit},
	}, h.VerifyEmailHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/auth/verify-email/resend",
		Summary:     "Re-send the email verification code",
		Middlewares: huma.Middlewares{mw.RateLimit},
	}, h.ResendVerificationHandler)

	// --- Password management ---
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/auth/password/forgot",
		Summary:     "Initiate a password reset",
		Middlewares: huma.Middlewares{mw.RateLimit},
	}, h.ForgotPasswordHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/auth/password/reset",
		Summary:     "Reset password with a one-time code",
		Middlewares: huma.Middlewares{mw.RateLimit},
	}, h.ResetPasswordHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/auth/password/change",
		Summary:     "Change password while logged in",
		Middlewares: huma.Middlewares{mw.Authenticate},
	}, h.ChangePasswordHandler)

	// --- OAuth ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/auth/oauth/{provider}",
		Summary: "Initiate OAuth login",
	}, h.OAuthLoginHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/auth/oauth/{provider}/callback",
		Summary: "Handle OAuth callback",
	}, h.OAuthCallbackHandler)

	// --- Current user and sessions ---
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Get the current user",
		Middlewares: huma.Middlewares{mw.Authenticate},
	}, h.MeHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/auth/sessions",
		Summary:     "List the current user's active sessions",
		Middlewares: huma.Middlewares{mw.Authenticate},
	}, h.ListSessionsHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/auth/login-attempts",
		Summary:     "List the current user's recent login attempts",
		Middlewares: huma.Middlewares{mw.Authenticate},
	}, h.ListLoginAttemptsHandler)

	// --- User administration ---
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get a user by id",
		Middlewares: huma.Middlewares{mw.Authenticate, mw.OwnerOrAdmin("id")},
	}, h.GetUserHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPatch,
		Path:        "/users/{id}/role",
		Summary:     "Change a user's role",
		Middlewares: huma.Middlewares{mw.Authenticate, mw.AdminOnly},
	}, h.UpdateUserRoleHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPatch,
		Path:        "/users/{id}/status",
		Summary:     "Suspend, deactivate or reactivate a user",
		Middlewares: huma.Middlewares{mw.Authenticate, mw.AdminOnly},
	}, h.UpdateUserStatusHandler)
}

// --- Shared payloads ---

// UserPayload is the public shape of a user in responses.
type UserPayload struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         *string    `json:"phone,omitempty"`
	Role          Role       `json:"role"`
	Status        UserStatus `json:"status"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toUserPayload(u *User) *UserPayload {
	return &UserPayload{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// --- Cookie helpers ---

// sessionCookies builds the access and refresh cookies for a fresh token
// pair. Both are HttpOnly; Secure is tied to the environment so local
// development over plain HTTP keeps working.
func (h *Handler) sessionCookies(pair TokenPair) []*http.Cookie {
	maxAge := int(pair.ExpiresIn)
	return []*http.Cookie{
		{
			Name:     AccessTokenCookie,
			Value:    pair.AccessToken,
			Path:     "/",
			Domain:   h.config.Auth.CookieDomain,
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   h.config.IsProduction(),
			SameSite: h.cookieSameSite(),
		},
		{
			Name:     RefreshTokenCookie,
			Value:    pair.RefreshToken,
			Path:     "/auth",
			Domain:   h.config.Auth.CookieDomain,
			MaxAge:   int(h.config.Auth.RefreshTokenTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.config.IsProduction(),
			SameSite: h.cookieSameSite(),
		},
	}
}

// clearSessionCookies expires both session cookies on the client.
func (h *Handler) clearSessionCookies() []*http.Cookie {
	return []*http.Cookie{
		{
			Name:     AccessTokenCookie,
			Value:    "",
			Path:     "/",
			Domain:   h.config.Auth.CookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.config.IsProduction(),
			SameSite: h.cookieSameSite(),
		},
		{
			Name:     RefreshTokenCookie,
			Value:    "",
			Path:     "/auth",
			Domain:   h.config.Auth.CookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.config.IsProduction(),
			SameSite: h.cookieSameSite(),
		},
	}
}

func (h *Handler) cookieSameSite() http.SameSite {
	switch strings.ToLower(h.config.Auth.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
