package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/expertdesk/api/internal/config"
	"github.com/expertdesk/api/internal/middleware"
	"github.com/expertdesk/api/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// Deps bundles what the server needs beyond config and logging.
type Deps struct {
	AuthService auth.Service
	Tokens      *auth.TokenService
	Users       middleware.UserResolver
	Redis       *redis.Client
}

// New creates and configures the HTTP router and API surface.
func New(cfg *config.Config, log *slog.Logger, deps Deps) chi.Router {
	router := chi.NewMux()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.ClientIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	apiConfig := huma.DefaultConfig("ExpertDesk API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(router, apiConfig)

	authHandler := auth.NewHandler(deps.AuthService, log, cfg)
	authHandler.RegisterRoutes(api, auth.RouteMiddlewares{
		Authenticate: middleware.Authenticate(deps.Tokens, deps.Users, log),
		RateLimit:    middleware.RateLimit(deps.Redis, cfg.Auth.RateLimitPerMinute, time.Minute, log),
		AdminOnly:    middleware.Authorize(auth.RoleAdmin, auth.RoleSuperAdmin),
		OwnerOrAdmin: middleware.OwnerOrAdmin,
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health Check",
		Description: "Responds with the server's health status.",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Status string `json:"status"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status"`
			}
		}{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	return router
}
