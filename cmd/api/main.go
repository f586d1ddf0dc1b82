// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ksdeva/predictor-admin/internal/account"
	"github.com/ksdeva/predictor-admin/internal/admin"
	"github.com/ksdeva/predictor-admin/internal/auth"
	"github.com/ksdeva/predictor-admin/internal/automation"
	"github.com/ksdeva/predictor-admin/internal/config"
	"github.com/ksdeva/predictor-admin/internal/core"
	"github.com/ksdeva/predictor-admin/internal/health"
	"github.com/ksdeva/predictor-admin/internal/middleware"
	"github.com/ksdeva/predictor-admin/internal/notifier"
	"github.com/ksdeva/predictor-admin/internal/request"
	"github.com/ksdeva/predictor-admin/internal/server"
	"github.com/ksdeva/predictor-admin/internal/training"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized", "algorithm", "ES256")

	var mailer notifier.Notifier
	if cfg.SMTP.Host != "" {
		mailer = notifier.NewSMTPNotifier(cfg.SMTP, logger)
		logger.Info("smtp notifier configured", "host", cfg.SMTP.Host)
	} else {
		mailer = notifier.NewLogNotifier(logger)
		logger.Warn("no smtp host configured, notifications are log-only")
	}

	trainer := training.NewHTTPTrainer(cfg.Training, logger)

	adminRepo := auth.NewAdminRepository(db.DB)
	tokenRepo := auth.NewTokenRepository(db.DB)
	authSvc := auth.NewService(adminRepo, tokenRepo, jwtManager)
	authHandler := auth.NewHandler(authSvc)

	requestRepo := request.NewRepository(db.DB)
	accountRepo := account.NewRepository(db.DB)

	requestSvc := request.NewService(
		requestRepo,
		accountRepo,
		request.NewTransactor(db.DB),
		trainer,
		mailer,
		cfg.SMTP.LoginURL,
		logger,
	)
	requestHandler := request.NewHandler(requestSvc, cfg.Lifecycle)

	modeStore := automation.NewModeStore(redis.Client)
	engine := automation.NewEngine(
		accountRepo,
		requestSvc,
		mailer,
		cfg.Lifecycle,
		logger,
	)
	automationHandler := automation.NewHandler(engine, modeStore, cfg.Lifecycle)
	scheduler := automation.NewScheduler(
		engine,
		modeStore,
		cfg.Automation.Interval,
		logger,
	)

	healthHandler := health.NewHandler()
	healthHandler.AddChecker("database", db)
	healthHandler.AddChecker("redis", redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	registerRoutes(router, routeDeps{
		health:        healthHandler,
		jwks:          jwtManager.GetJWKSHandler(),
		auth:          authHandler,
		requests:      requestHandler,
		automation:    automationHandler,
		system:        adminHandler,
		authenticator: middleware.Authenticator(jwtManager),
		adminOnly:     middleware.RequireAdmin,
	})

	go scheduler.Run(ctx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

type routeDeps struct {
	health        *health.Handler
	jwks          http.HandlerFunc
	auth          *auth.Handler
	requests      *request.Handler
	automation    *automation.Handler
	system        *admin.Handler
	authenticator func(http.Handler) http.Handler
	adminOnly     func(http.Handler) http.Handler
}

// registerRoutes mounts every route on the given router. The /admin
// subrouter is created exactly once here; handlers attach their routes
// to it instead of mounting their own, since chi panics on a second
// Route() for the same pattern.
func registerRoutes(router chi.Router, d routeDeps) {
	d.health.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", d.jwks)

	router.Route("/api", func(r chi.Router) {
		d.requests.RegisterPublicRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			d.auth.RegisterRoutes(r, d.authenticator)

			r.Group(func(r chi.Router) {
				r.Use(d.authenticator)
				r.Use(d.adminOnly)

				d.requests.RegisterAdminRoutes(r)
				d.automation.RegisterAdminRoutes(r)
				d.system.RegisterRoutes(r)
			})
		})
	})
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
