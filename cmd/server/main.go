package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ngenohkevin/lmsdesk/internal/apiclient"
	"github.com/ngenohkevin/lmsdesk/internal/config"
	"github.com/ngenohkevin/lmsdesk/internal/database"
	"github.com/ngenohkevin/lmsdesk/internal/handlers"
	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/middleware"
	"github.com/ngenohkevin/lmsdesk/internal/query"
	"github.com/ngenohkevin/lmsdesk/internal/repository"
	"github.com/ngenohkevin/lmsdesk/internal/services"
	"github.com/ngenohkevin/lmsdesk/internal/state"
)

const version = "1.0.0"

// preferenceTTL bounds how long persisted preferences of an abandoned
// session are kept.
const preferenceTTL = 90 * 24 * time.Hour

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Redis is optional; without it preferences live in memory and requests
	// are not rate limited.
	var redisClient *database.RedisClient
	var persister state.Persister = state.NewMemoryPersister()
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedis(cfg.Redis, logger)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		persister = state.NewRedisPersister(redisClient, preferenceTTL)
	} else {
		slog.Warn("Redis disabled, preferences are kept in memory")
	}

	// Upstream API and data layer
	api := apiclient.New(cfg.API, logger)

	bookService := services.NewBookService(repository.NewBookRepository(api))
	userService := services.NewUserService(repository.NewUserRepository(api))
	loanService := services.NewLoanService(repository.NewLoanRepository(api))
	contentService := services.NewContentService(repository.NewContentRepository(api))
	exportService := services.NewExportService(bookService, userService, loanService)

	// Token revocation needs Redis.
	var blacklist *redis.Client
	if redisClient != nil {
		blacklist = redisClient.Client
	}
	authService, err := services.NewAuthService(services.AuthOptions{
		Secret:            cfg.Auth.JWTSecret,
		TokenExpiry:       time.Duration(cfg.Auth.ExpiryHours) * time.Hour,
		AdminUsername:     cfg.Auth.AdminUsername,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
	}, logger, blacklist)
	if err != nil {
		slog.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}

	// Query cache shared by every session
	queryClient := query.NewClient(query.Options{
		StaleTime:   cfg.Cache.StaleTime,
		GCTime:      cfg.Cache.GCTime,
		ReadRetries: cfg.Cache.ReadRetries,
	}, logger)
	queryClient.Start()
	defer queryClient.Stop()

	set := hooks.NewSet(queryClient, bookService, userService, loanService, contentService)

	registry := state.NewRegistry(state.RegistryOptions{
		IdleTimeout: cfg.Session.IdleTimeout,
		SearchDelay: cfg.Search.Debounce,
	}, persister, logger)
	registry.Start()
	defer registry.Stop()

	r := handlers.NewRouter(handlers.Dependencies{
		Hooks:    set,
		Auth:     authService,
		Export:   exportService,
		Registry: registry,
		Upstream: api,
		Redis:    redisClient,
		Session: middleware.SessionOptions{
			Cookie: cfg.Session.Cookie,
			MaxAge: preferenceTTL,
			Secure: cfg.Server.Mode == gin.ReleaseMode,
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Version:        version,
		Logger:         logger,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	// Catalog streams stay open for as long as the browser keeps them, so
	// there is no write timeout. Cancelling baseCtx ends them on shutdown.
	baseCtx, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", port, "mode", cfg.Server.Mode, "upstream", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")
	stopStreams()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}
