// ============================================================================
// MAIN.GO - DOMAINLENS API SERVER
// ============================================================================
// Startup flow:
// 1. Configuration from environment variables
// 2. Structured JSON logger
// 3. Store (PostgreSQL pool or in-memory)
// 4. Services and HTTP handler
// 5. Routes and middleware chain
// 6. Server with graceful shutdown
// ============================================================================

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"domainlens/internal/app"
	"domainlens/internal/config"
	httpHandler "domainlens/internal/handler/http"
	"domainlens/internal/ratelimit"
	"domainlens/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ========================================================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================================================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// ========================================================================
	// STEP 2: INITIALIZE STRUCTURED LOGGER
	// ========================================================================
	appLogger := logger.New(cfg.App.LogLevel)
	appLogger.Info("Starting DomainLens",
		"environment", cfg.App.Environment,
		"port", cfg.Server.Port,
		"store", cfg.Database.Driver,
	)

	// ========================================================================
	// STEP 3: OPEN THE STORE
	// ========================================================================
	ctx := context.Background()
	store, closeStore, err := app.OpenStore(ctx, cfg.Database, cfg.Database.AutoMigrate, appLogger.Logger)
	if err != nil {
		appLogger.Error("Failed to open store", "error", err)
		log.Fatalf("Store initialization failed: %v", err)
	}
	defer closeStore()

	// ========================================================================
	// STEP 4: BUILD SERVICES AND HANDLER
	// ========================================================================
	// Store → Services → Handler
	services := app.NewServices(cfg, store, appLogger.Logger)
	handler := httpHandler.NewHandler(httpHandler.Services{
		Ingest:   services.Ingest,
		Search:   services.Search,
		Keywords: services.Keywords,
		Monitors: services.Monitors,
		Stats:    services.Stats,
	}, appLogger)

	// ========================================================================
	// STEP 5: ROUTES AND MIDDLEWARE
	// ========================================================================
	// EXECUTION ORDER (outside-in):
	// Recovery → Logging → RequestID → Metrics → RateLimit → CORS → Handler
	mux := http.NewServeMux()
	handler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	middlewares := []func(http.Handler) http.Handler{
		httpHandler.RecoveryMiddleware(appLogger.Logger),
		httpHandler.LoggingMiddleware(appLogger.Logger),
		httpHandler.RequestIDMiddleware,
		httpHandler.MetricsMiddleware,
	}
	if cfg.RateLimit.Enabled {
		limiter, closeLimiter := newLimiter(ctx, cfg, appLogger)
		defer closeLimiter()
		middlewares = append(middlewares, httpHandler.RateLimitMiddleware(limiter, appLogger.Logger))
	}
	middlewares = append(middlewares, httpHandler.CORSMiddleware)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpHandler.Chain(middlewares...)(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// ========================================================================
	// STEP 6: START SERVER AND WAIT FOR SHUTDOWN SIGNAL
	// ========================================================================
	go func() {
		appLogger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server failed", "error", err)
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
		return
	}

	appLogger.Info("Server exited gracefully")
}

// newLimiter prefers Redis so that limits are shared between instances.
// An unreachable Redis falls back to in-process buckets.
func newLimiter(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (httpHandler.RateLimiter, func()) {
	window := time.Minute
	if cfg.Redis.Enabled {
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			appLogger.Info("Rate limiting with Redis", "addr", cfg.Redis.RedisAddr())
			return ratelimit.NewRedisLimiter(client, cfg.RateLimit.RequestsPerMinute, window), func() { _ = client.Close() }
		}
		appLogger.Warn("Redis unavailable, using local rate limiter", "error", err)
	}

	return ratelimit.NewLocalLimiter(cfg.RateLimit.RequestsPerMinute, window, cfg.RateLimit.Burst), func() {}
}
