package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/expertdesk/api/internal/httpx"
	"github.com/redis/go-redis/v9"
)

// RateLimit applies a fixed-window counter per client IP and route, backed
// by Redis so the limit holds across replicas. Redis failures let the
// request through; the limiter protects against brute force, it is not a
// correctness gate.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		key := fmt.Sprintf("ratelimit:%s:%s", ctx.Operation().Path, ip)

		count, err := rdb.Incr(r.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", "error", err)
			next(ctx)
			return
		}
		if count == 1 {
			rdb.Expire(r.Context(), key, window)
		}
		if count > int64(limit) {
			ttl, err := rdb.TTL(r.Context(), key).Result()
			if err != nil || ttl < 0 {
				ttl = window
			}
			retryAfter := int(ttl.Seconds())
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			writeProblem(w, httpx.TooManyRequestsProblem(r.Context(), retryAfter))
			return
		}

		next(ctx)
	}
}
