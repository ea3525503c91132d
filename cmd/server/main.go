package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/usps/internal"
	"github.com/dukerupert/usps/internal/address"
	"github.com/dukerupert/usps/internal/cache"
	"github.com/dukerupert/usps/internal/events"
	"github.com/dukerupert/usps/internal/handler/api"
	"github.com/dukerupert/usps/internal/middleware"
	"github.com/dukerupert/usps/internal/postgres"
	"github.com/dukerupert/usps/internal/router"
	"github.com/dukerupert/usps/internal/routes"
	"github.com/dukerupert/usps/internal/service"
	"github.com/dukerupert/usps/internal/telemetry"
	"github.com/dukerupert/usps/internal/usps"
	"github.com/dukerupert/usps/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	checks := map[string]api.Check{}
	opts := []service.Option{service.WithLogger(logger)}

	// ==========================================================================
	// Verification history (optional)
	// ==========================================================================

	if cfg.DatabaseUrl != "" {
		pool, err := openDatabase(ctx, cfg.DatabaseUrl, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := postgres.NewVerificationStore(pool)
		opts = append(opts, service.WithStore(store))
		checks["postgres"] = pool.Ping

		retention := worker.NewRetention(store, worker.Config{
			Retention: cfg.History.Retention,
			Interval:  cfg.History.SweepInterval,
		}, logger)
		go retention.Start(ctx)
	} else {
		logger.Warn("DATABASE_URL not set, verification history disabled")
	}

	// ==========================================================================
	// Address resolver
	// ==========================================================================

	client, err := usps.NewClient(usps.Config{
		UserID:  cfg.USPS.UserID,
		BaseURL: cfg.USPS.BaseURL,
		Timeout: cfg.USPS.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize USPS client: %w", err)
	}

	var resolver address.Resolver = client

	redisClient, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		resolver = cache.NewResolver(client, cache.NewRedisStore(redisClient), cfg.Cache.TTL, logger)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		logger.Info("Standardization cache enabled", "ttl", cfg.Cache.TTL)
	}

	// ==========================================================================
	// Events (optional)
	// ==========================================================================

	if cfg.Events.NATSURL != "" {
		publisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer publisher.Close()

		opts = append(opts, service.WithPublisher(publisher))
		logger.Info("Publishing verification events", "subject", cfg.Events.Subject)
	}

	verificationService := service.NewVerificationService(resolver, opts...)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics("usps", prometheus.DefaultRegisterer)

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	rateConfig := middleware.DefaultRateLimiterConfig()
	rateConfig.KeyFunc = middleware.ClientIPFunc(trustedProxies)
	rateLimiter := middleware.NewRateLimiter(rateConfig)
	defer rateLimiter.Stop()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID(logger),
		metrics.Middleware,
		telemetry.SentryMiddleware(),
		router.Logger(logger),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		HealthHandler:  api.NewHealthHandler(checks, logger),
		MetricsHandler: metrics.Handler(),
	})

	apiRouter := r.Group(
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		rateLimiter.Middleware,
	)
	routes.RegisterAPIRoutes(apiRouter, routes.APIDeps{
		AddressHandler: api.NewAddressHandler(verificationService, logger),
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

// openDatabase runs migrations over database/sql and returns the pgx pool used
// by the application.
func openDatabase(ctx context.Context, url string, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
