package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/tasklist/backend/internal/config"
	"github.com/tasklist/backend/internal/db"
	"github.com/tasklist/backend/internal/handler"
	"github.com/tasklist/backend/internal/logger"
	"github.com/tasklist/backend/internal/metrics"
	"github.com/tasklist/backend/internal/ratelimit"
	"github.com/tasklist/backend/internal/service"
)

// @title tasklist API
// @version 1.0
// @description Todo lists and tasks behind access and refresh token sessions.
// @BasePath /
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Server.LogLevel)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	m := metrics.New()
	authOpts := []service.AuthOption{
		service.WithMetrics(m),
		service.WithLogger(log),
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		window, err := time.ParseDuration(cfg.Redis.LoginWindow)
		if err != nil {
			return fmt.Errorf("invalid LOGIN_WINDOW: %w", err)
		}
		limiter := ratelimit.NewLoginLimiter(rdb, ratelimit.LoginConfig{
			MaxAttempts: cfg.Redis.LoginMaxAttempts,
			Window:      window,
		})
		authOpts = append(authOpts, service.WithLoginLimiter(limiter))
		log.Info("login limiter enabled", "redis_addr", cfg.Redis.Addr)
	}

	authService, err := service.NewAuthService(store, cfg.Auth, authOpts...)
	if err != nil {
		return err
	}

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           authService,
		Lists:          service.NewListService(store),
		Metrics:        m,
		Logger:         log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
