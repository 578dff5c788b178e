package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nutrilab/nutrilab/internal/config"
	"github.com/nutrilab/nutrilab/internal/domain/nutrition"
	"github.com/nutrilab/nutrilab/internal/domain/report"
	"github.com/nutrilab/nutrilab/internal/domain/user"
	"github.com/nutrilab/nutrilab/internal/platform/auth"
	"github.com/nutrilab/nutrilab/internal/platform/clerk"
	"github.com/nutrilab/nutrilab/internal/platform/db"
	"github.com/nutrilab/nutrilab/internal/platform/middleware"
	"github.com/nutrilab/nutrilab/internal/platform/notification"
	"github.com/nutrilab/nutrilab/internal/platform/telemetry"
	"github.com/nutrilab/nutrilab/internal/platform/webhook"
)

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	metrics := telemetry.New()

	rdb, err := notification.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info().Msg("status notifications enabled")
	} else {
		logger.Warn().Msg("REDIS_URL not set, status notifications disabled")
	}
	notifier := notification.NewNotifier(rdb, logger, metrics)

	e, err := newRouter(cfg, logger, pool, notifier, metrics)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newRouter assembles middleware and routes. It does not touch the network;
// pool is only used lazily by the repositories and health check.
func newRouter(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, notifier *notification.Notifier, metrics *telemetry.Metrics) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.CORS(cfg.CORSOrigins))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}

	if cfg.IsDev() {
		logger.Warn().Msg("development auth: X-User-ID and X-User-Role headers are trusted")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	// Public endpoints.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	deps := map[string]db.Pinger{"postgres": pool}
	if notifier.Enabled() {
		deps["redis"] = notifier
	}
	e.GET("/health/db", db.HealthHandler(deps, func() any { return db.GetPoolStats(pool) }))
	e.GET("/metrics", metrics.Handler())

	var verifier user.SignatureVerifier
	if cfg.ClerkWebhookSecret != "" {
		v, err := webhook.NewVerifier(cfg.ClerkWebhookSecret)
		if err != nil {
			return nil, err
		}
		verifier = v
	} else {
		logger.Warn().Msg("CLERK_WEBHOOK_SECRET not set, identity webhooks will be rejected")
	}

	api := e.Group("/api")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	webhooks := e.Group("/webhooks")

	requests := nutrition.NewRequestRepoPG(pool)
	nutritionSvc := nutrition.NewService(requests, notifier, metrics)
	nutrition.NewHandler(nutritionSvc, cfg.IntakeRedirectDelay).RegisterRoutes(api)

	reportSvc := report.NewService(report.NewReportRepoPG(pool), requests, notifier, metrics)
	report.NewHandler(reportSvc).RegisterRoutes(api)

	clerkClient := clerk.NewClient(cfg.ClerkAPIURL, cfg.ClerkSecretKey, logger)
	userSvc := user.NewService(user.NewUserRepoPG(pool), pool, clerkClient, metrics, logger)
	user.NewHandler(userSvc, verifier, logger).RegisterRoutes(api, webhooks)

	return e, nil
}
