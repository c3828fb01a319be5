package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/caller-panel/internal/adapters/primary/http"
	mw "github.com/lorrc/caller-panel/internal/adapters/primary/http/middleware"
	"github.com/lorrc/caller-panel/internal/adapters/primary/websocket"
	"github.com/lorrc/caller-panel/internal/adapters/secondary/memory"
	"github.com/lorrc/caller-panel/internal/adapters/secondary/postgres"
	"github.com/lorrc/caller-panel/internal/adapters/secondary/redis"
	"github.com/lorrc/caller-panel/internal/adapters/secondary/xlsx"
	"github.com/lorrc/caller-panel/internal/adapters/secondary/zendesk"
	"github.com/lorrc/caller-panel/internal/config"
	"github.com/lorrc/caller-panel/internal/core/ports"
	"github.com/lorrc/caller-panel/internal/core/services"
	"github.com/lorrc/caller-panel/internal/infrastructure/logging"
)

// stateStore is the shared store as main needs it: the port plus a health check.
type stateStore interface {
	ports.StateStore
	Ping(ctx context.Context) error
}

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	ctx := context.Background()
	healthChecks := make(map[string]httpAdapter.HealthChecker)

	// 3. Initialize Helpdesk Client
	var helpdesk ports.HelpdeskClient
	switch cfg.Helpdesk.Driver {
	case config.HelpdeskZendesk:
		z := cfg.Helpdesk.Zendesk
		client, err := zendesk.NewClient(zendesk.Config{
			BaseURL:    z.BaseURL,
			Subdomain:  z.Subdomain,
			Email:      z.Email,
			APIToken:   z.APIToken,
			Timeout:    z.Timeout,
			MaxRetries: z.MaxRetries,
		}, logger)
		if err != nil {
			logger.Error("failed to create zendesk client", "error", err)
			os.Exit(1)
		}
		helpdesk = client
		logger.Info("helpdesk: zendesk", "subdomain", z.Subdomain)

	case config.HelpdeskPostgres:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("database connection established")

		if cfg.Database.RunMigrations {
			if err := postgres.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
			logger.Info("database migrations applied")
		}

		repo := postgres.NewHelpdeskRepository(pool)
		helpdesk = repo
		healthChecks["database"] = repo

	default:
		// Left as a nil interface: the panel stays Idle.
		logger.Warn("no helpdesk configured, ticket lookups are disabled")
	}

	// 4. Initialize Shared State Store
	var store stateStore
	switch cfg.StateStore.Driver {
	case config.StoreRedis:
		rs, err := redis.Open(ctx, redis.Config{
			Addr:      cfg.StateStore.RedisAddr,
			Password:  cfg.StateStore.RedisPassword,
			DB:        cfg.StateStore.RedisDB,
			KeyPrefix: cfg.StateStore.KeyPrefix,
			TTL:       cfg.StateStore.TTL,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		store = rs
	default:
		store = memory.NewStateStore()
	}
	healthChecks["state_store"] = store
	logger.Info("state store ready", "driver", cfg.StateStore.Driver)

	// 5. Initialize Real-time Components
	hub := websocket.NewHub(logger)
	go hub.Run()
	dispatcher := websocket.NewDispatcher(hub, cfg.Telephony.Origin, logger)

	// 6. Dependency Injection (Wiring the Hexagon)
	sessions := services.NewSessionManager(services.Collaborators{
		Helpdesk:    helpdesk,
		Store:       store,
		Broadcaster: hub,
		Navigator:   dispatcher,
		Dialer:      dispatcher,
		Importer:    xlsx.NewCallLogImporter(logger),
	}, cfg.Session.IdleTTL, logger)
	sessions.StartSweeper(cfg.Session.SweepInterval)
	panelService := services.NewPanelService(sessions)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Handlers (Primary Adapters)
	panelHandler := httpAdapter.NewPanelHandler(panelService, errorHandler, logger)
	callsHandler := httpAdapter.NewCallsHandler(panelService, errorHandler, cfg.Session.MaxUploadBytes, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(healthChecks, cfg.App.Version)

	// 7. Initialize Rate Limiters
	var ipRateLimiter *mw.RateLimiter
	var sessionRateLimiter *mw.RateLimitByKey
	if cfg.RateLimit.Enabled {
		ipRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		sessionRateLimiter = mw.NewRateLimitByKey(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	}

	// 8. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(cfg),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if ipRateLimiter != nil {
		r.Use(ipRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Panels connect here with ?session=
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(mw.SessionContext)
			if sessionRateLimiter != nil {
				r.Use(sessionRateLimiter.SessionMiddleware)
			}
			panelHandler.RegisterRoutes(r)
			r.Route("/calls", callsHandler.RegisterRoutes)
		})
	})

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown: stop taking requests, then drain lookups, then
	// disconnect panels.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	sessions.Shutdown()
	hub.Stop()

	logger.Info("server shutdown complete")
}

func openPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, err
	}

	// Apply database configuration
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnLifetime = db.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = db.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// corsOrigins allows every origin in development when none are configured.
func corsOrigins(cfg *config.Config) []string {
	if len(cfg.CORS.AllowedOrigins) == 0 && cfg.IsDevelopment() {
		return []string{"*"}
	}
	return cfg.CORS.AllowedOrigins
}
