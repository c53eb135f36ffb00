package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborchat/harbor/internal/config"
	"github.com/harborchat/harbor/internal/database"
	"github.com/harborchat/harbor/internal/handlers"
	"github.com/harborchat/harbor/internal/logging"
	"github.com/harborchat/harbor/internal/middleware"
	"github.com/harborchat/harbor/internal/services"
	"github.com/harborchat/harbor/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{
			"env": cfg.Server.Environment,
		})
	}

	logger.Info("Starting Harbor reaction engine...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	dbAdapter := store.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	sessionService := services.NewSessionService(redisAdapter)
	eventBus := services.NewEventBus(services.NewRedisPublisher(redisDB.Client), logger)
	activityService := services.NewActivityService(dbAdapter, logger)
	membershipService := services.NewMembershipService(dbAdapter)
	reactionService := services.NewReactionService(dbAdapter, membershipService, activityService, eventBus)
	viewerService := services.NewViewerService(dbAdapter, eventBus)

	// Detached work (fan-out, activity summaries) outlives requests but not
	// the process; cancel on shutdown.
	asyncCtx, asyncCancel := context.WithCancel(context.Background())
	eventBus.SetAsyncContext(asyncCtx)
	activityService.SetAsyncContext(asyncCtx)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	reactionHandler := handlers.NewReactionHandler(reactionService)
	viewerHandler := handlers.NewViewerHandler(viewerService)
	chatHandler := handlers.NewChatHandler(membershipService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(sessionService)
	requestLogger := middleware.NewRequestLogger(logger)
	requireSession := authMiddleware.RequireSession

	reactionRateLimiter := middleware.NewRateLimiter(redisDB.Client, 120, 1*time.Minute, "ratelimit:reactions:", func(r *http.Request) string {
		user := handlers.GetUserFromContext(r.Context())
		if user != nil {
			return user.ID.String()
		}
		return ""
	}, true)

	// Set up router
	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Reaction endpoints
	mux.Handle("PUT /api/messages/{id}/reaction", requireSession(reactionRateLimiter.Middleware(http.HandlerFunc(reactionHandler.Set))))
	mux.Handle("GET /api/messages/{id}/reactions", requireSession(http.HandlerFunc(reactionHandler.List)))
	mux.Handle("GET /api/reactions/values", requireSession(http.HandlerFunc(reactionHandler.AllowedValues)))

	// Message and viewer endpoints
	mux.Handle("GET /api/messages/{id}", requireSession(http.HandlerFunc(viewerHandler.GetMessage)))
	mux.Handle("POST /api/messages/{id}/view", requireSession(http.HandlerFunc(viewerHandler.MarkViewed)))

	// Chat endpoint
	mux.Handle("GET /api/chats/{id}", requireSession(http.HandlerFunc(chatHandler.Get)))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = requestLogger.Apply(handler)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), resolveShutdownTimeout(logger, os.LookupEnv))
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}

		// Let in-flight fan-out drain before cutting it off.
		eventBus.Wait()
		activityService.Wait()
		asyncCancel()
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

func resolveShutdownTimeout(logger *logging.Logger, lookupEnv func(string) (string, bool)) time.Duration {
	timeout := 30 * time.Second
	if value, ok := lookupEnv("SHUTDOWN_TIMEOUT"); ok && value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			logger.Warn("Invalid SHUTDOWN_TIMEOUT; using default", map[string]interface{}{
				"value":   value,
				"default": timeout.String(),
			})
		} else {
			timeout = parsed
			logger.Info("Using shutdown timeout from env", map[string]interface{}{"timeout": timeout.String()})
		}
	}
	return timeout
}
