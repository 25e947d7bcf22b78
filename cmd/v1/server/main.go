package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/oceanlight-game/server/internal/v1/config"
	"github.com/oceanlight-game/server/internal/v1/health"
	"github.com/oceanlight-game/server/internal/v1/logging"
	"github.com/oceanlight-game/server/internal/v1/middleware"
	"github.com/oceanlight-game/server/internal/v1/ratelimit"
	"github.com/oceanlight-game/server/internal/v1/room"
	"github.com/oceanlight-game/server/internal/v1/tracing"
	"github.com/oceanlight-game/server/internal/v1/transport"
)

const serviceName = "game-server"

func main() {
	// Load .env file for local development.
	// Try multiple paths to handle different ways of running the app
	envPaths := []string{".env", "../../../.env", "../../.env"}
	var envLoaded bool

	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("Loaded environment from", "path", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		slog.Warn("No .env file found in any expected location, relying on environment variables")
	}

	// Validate environment variables before starting the server
	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.DevelopmentMode); err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if cfg.DevelopmentMode {
		slog.Info("Running in DEVELOPMENT MODE")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Tracing (Optional) ---
	ctx := context.Background()
	if cfg.OtelEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.OtelEndpoint)
		if err != nil {
			slog.Error("Failed to initialize tracing, continuing without it", "error", err)
		} else {
			slog.Info("✅ Tracing initialized", "endpoint", cfg.OtelEndpoint)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					slog.Error("Failed to shut down tracer provider", "error", err)
				}
			}()
		}
	}

	// --- Rate Limiting ---
	rateLimiter, err := ratelimit.NewRateLimiter(cfg)
	if err != nil {
		slog.Error("Failed to create rate limiter", "error", err)
		os.Exit(1)
	}

	// --- Room Manager and WebSocket Server ---
	manager := room.NewManager(ctx, cfg.MaxPlayersPerRoom, cfg.MinRooms, cfg.TickRate)
	server := transport.NewServer(manager, rateLimiter)

	// --- Set up Server ---
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	if cfg.OtelEnabled {
		router.Use(otelgin.Middleware(serviceName))
	}

	// Cors: browser clients connect from arbitrary game-hosting origins,
	// and the surface is read-only HTTP plus the WS upgrade.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Game clients upgrade at whatever path their build was configured
	// with, so every unrouted path is a WebSocket entry point.
	router.NoRoute(server.ServeWs)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health and introspection endpoints, behind the HTTP rate limit
	healthHandler := health.NewHandler(manager)
	healthHandler.Register(router.Group("", rateLimiter.HTTPMiddleware()))

	// Start the server.
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Game server starting", "port", cfg.Port,
			"max_players_per_room", cfg.MaxPlayersPerRoom,
			"tick_rate", cfg.TickRate)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		slog.Error("Failed to run server", "error", err)
		os.Exit(1)
	case <-quit:
	}
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Close all active rooms and WebSocket connections gracefully
	if err := manager.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during room manager shutdown:", "error", err)
	}

	// Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown:", "error", err)
	}

	slog.Info("Server exiting")
}
