package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/expertdesk/api/internal/cache"
	"github.com/expertdesk/api/internal/config"
	"github.com/expertdesk/api/internal/database"
	"github.com/expertdesk/api/internal/modules/auth"
	"github.com/expertdesk/api/internal/notification"
	"github.com/expertdesk/api/internal/server"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8080"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg := config.Load()
		if cfg == nil {
			logger.Error("failed to load configuration")
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)

		// --- Database & Cache ---
		dbPool := database.NewPostgresPool(cfg.Database.URL)
		if dbPool == nil {
			logger.Error("failed to connect to postgres")
			os.Exit(1)
		}
		hooks.OnStop(dbPool.Close)
		logger.Info("successfully connected to postgres database")

		redisClient := cache.NewRedisClient(cfg.Redis.URL)
		if redisClient == nil {
			logger.Error("failed to connect to redis")
			os.Exit(1)
		}
		hooks.OnStop(func() { redisClient.Close() })
		logger.Info("successfully connected to redis")

		// --- Notifications ---
		emailSender := notification.NewSMTPEmailSender(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger)
		smsSender := notification.NewDummySMSSender(logger)
		notifier := notification.NewService(logger, emailSender, smsSender)

		// --- Auth Module (bottom-up) ---
		authRepo := auth.NewRepository(dbPool)
		tokens := auth.NewTokenService(authRepo, &cfg.Auth, logger)
		otps := auth.NewOTPService(authRepo, &cfg.Auth, logger)
		authService := auth.NewService(&auth.Config{
			Repo:     authRepo,
			Tokens:   tokens,
			OTPs:     otps,
			Notifier: notifier,
			Logger:   logger,
			Config:   cfg,
		})

		router := server.New(cfg, logger, server.Deps{
			AuthService: authService,
			Tokens:      tokens,
			Users:       authRepo,
			Redis:       redisClient,
		})

		// Background sweeper for dead refresh tokens, OTP codes and OAuth
		// states. Expired rows are already unusable; this keeps the tables
		// from growing without bound.
		sweepCtx, stopSweeper := context.WithCancel(context.Background())
		hooks.OnStop(stopSweeper)
		sweeper := auth.NewSweeper(tokens, otps, authRepo, cfg.Auth.SweepInterval, logger)
		go sweeper.Run(sweepCtx)

		hooks.OnStart(func() {
			logger.Info(fmt.Sprintf("Starting server on port %d...", options.Port))
			if err := http.ListenAndServe(fmt.Sprintf(":%d", options.Port), router); err != nil {
				slog.Error("Server failed to start", "error", err)
				os.Exit(1)
			}
		})
	})
	cli.Run()
}
