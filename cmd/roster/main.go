package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/roster-hq/roster/internal/access"
	"github.com/roster-hq/roster/internal/accounts"
	accountshttp "github.com/roster-hq/roster/internal/accounts/http"
	"github.com/roster-hq/roster/internal/app"
	"github.com/roster-hq/roster/internal/auth"
	authhttp "github.com/roster-hq/roster/internal/auth/http"
	"github.com/roster-hq/roster/internal/identity"
	"github.com/roster-hq/roster/internal/observability"
	"github.com/roster-hq/roster/internal/platform/cache"
	"github.com/roster-hq/roster/internal/platform/db"
	"github.com/roster-hq/roster/internal/token"
	"github.com/roster-hq/roster/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, 0)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	signer := token.NewSigner(
		token.ClassConfig{Secret: []byte(cfg.JWTAccessSecret), TTL: cfg.JWTAccessTTL},
		token.ClassConfig{Secret: []byte(cfg.JWTRefreshSecret), TTL: cfg.JWTRefreshTTL},
	)
	if cfg.OAuth2ClientID == "" {
		logger.Warn("OAUTH2_CLIENT_ID is empty; external identity tokens will be rejected")
	}
	identities := identity.NewGoogleVerifier(cfg.OAuth2ClientID)

	accountsRepo := accounts.NewRepository(pool)
	hasher := accounts.BcryptHasher{}
	accountsService := accounts.NewService(accountsRepo, hasher)

	gate := access.NewGate(signer, identities, accountsRepo, logger)
	resolver := access.NewResolver(signer, identities, accountsRepo, logger)

	metrics := observability.NewMetrics()
	gateMiddleware := access.Middleware{
		Gate:     gate,
		Resolver: resolver,
		Logger:   logger,
		Observe:  metrics.ObserveAuthDecision,
	}

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, redisClient)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(accountsRepo, hasher, signer, jobsClient, logger)

	authHandler := authhttp.NewHandler(logger, authService)
	accountsHandler := accountshttp.NewHandler(logger, accountsService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthHandler:     authHandler,
		AccountsHandler: accountsHandler,
		Gate:            gateMiddleware,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
