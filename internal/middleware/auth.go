package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/expertdesk/api/internal/contextx"
	"github.com/expertdesk/api/internal/httpx"
	"github.com/expertdesk/api/internal/modules/auth"
)

// TokenVerifier validates a signed access token offline.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
}

// UserResolver re-resolves the token subject against the store.
type UserResolver interface {
	FindUserByID(ctx context.Context, id string) (*auth.User, error)
}

// Authenticate is the per-request authorization gate. It extracts the access
// token (cookie first, Bearer header fallback), verifies signature and
// expiry, then re-resolves the user from the store. Embedded role and status
// claims may be stale, and a suspended user's still-valid token must stop
// working before its natural expiry. The resolved identity is attached to the
// request context for downstream handlers.
//
// Failures carry a sessionExpired hint: true when the token is absent or
// expired (a silent refresh may help), false when the signature is bad.
func Authenticate(tokens TokenVerifier, users UserResolver, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		tokenString := extractAccessToken(r)
		if tokenString == "" {
			// Absence alone cannot distinguish "never logged in" from an
			// expired cookie, so conservatively signal possible expiry.
			writeProblem(w, httpx.UnauthorizedProblem(r.Context(), "missing access token", true))
			return
		}

		claims, err := tokens.VerifyAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeProblem(w, httpx.UnauthorizedProblem(r.Context(), "access token expired", true))
				return
			}
			logger.Warn("invalid access token", "error", err)
			writeProblem(w, httpx.UnauthorizedProblem(r.Context(), "invalid access token", false))
			return
		}

		user, err := users.FindUserByID(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				writeProblem(w, httpx.UnauthorizedProblem(r.Context(), "unknown user", false))
				return
			}
			logger.Error("failed to resolve user for access token", "error", err)
			writeProblem(w, httpx.InternalProblem(r.Context(), ""))
			return
		}
		if user.Status != auth.StatusActive {
			writeProblem(w, httpx.ForbiddenProblem(r.Context(), "account is not active"))
			return
		}

		identity := &auth.Identity{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		}
		next(huma.WithValue(ctx, contextx.IdentityKey, identity))
	}
}

// Authorize gates a route on an explicit role allow-list. This is exact set
// membership, not a hierarchy threshold: an ADMIN does not pass a gate that
// allows only ANALYST.
func Authorize(allowed ...auth.Role) func(huma.Context, func(huma.Context)) {
	allowedSet := make(map[auth.Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		identity, ok := auth.IdentityFromContext(ctx.Context())
		if !ok {
			writeProblem(w, httpx.UnauthorizedProblem(r.Context(), "missing identity", false))
			return
		}
		if _, ok := allowedSet[identity.Role]; !ok {
			writeProblem(w, httpx.ForbiddenProblem(r.Context(), "insufficient role"))
			return
		}
		next(ctx)
	}
}

// OwnerOrAdmin allows admins and superadmins through, and otherwise requires
// the caller to be the user identified by the given path parameter.
func OwnerOrAdmin(param string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		identity, ok := auth.IdentityFromContext(ctx.Context())
		if !ok {
			writeProblem(w, httpx.UnauthorizedProblem(r.Context(), "missing identity", false))
			return
		}
		if identity.Role.IsAdmin() || ctx.Param(param) == identity.UserID {
			next(ctx)
			return
		}
		writeProblem(w, httpx.ForbiddenProblem(r.Context(), "you do not own this resource"))
	}
}

// extractAccessToken prefers the same-site cookie and falls back to the
// Authorization header, serving browser and API/script clients alike.
func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(auth.AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	return ""
}

func writeProblem(w http.ResponseWriter, p *httpx.Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.GetStatus())
	_ = json.NewEncoder(w).Encode(p)
}
