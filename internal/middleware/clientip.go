package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/expertdesk/api/internal/contextx"
)

// ClientIP copies the client IP into the request context so body-typed
// handlers can reach it without the raw *http.Request. Runs after chi's
// RealIP, which already folds X-Forwarded-For into RemoteAddr.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx := context.WithValue(r.Context(), contextx.ClientIPKey, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
