package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairdatause/qualify-api/internal/config"
	"github.com/fairdatause/qualify-api/internal/logger"
	transporthttp "github.com/fairdatause/qualify-api/internal/transport/http"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(&logger.Config{Level: cfg.LogLevel, Env: cfg.AppEnv, ServiceName: "qualify-api"})
	defer logger.Sync()

	if envErr != nil {
		logger.LogInfo("No .env file found, reading from environment")
	}
	logger.LogInfo("SERVER STARTUP",
		zap.String("DATABASE_URL", presence(cfg.DatabaseURL)),
		zap.String("REDDIT_CLIENT_ID", presence(cfg.RedditClientID)),
		zap.String("REDDIT_CLIENT_SECRET", presence(cfg.RedditClientSecret)),
		zap.String("NODE_ENV", cfg.AppEnv),
		zap.String("storage", cfg.StorageDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx, cfg)
	if err != nil {
		logger.LogFatal("startup failed", zap.Error(err))
	}
	defer app.close()

	router := transporthttp.NewRouter(ctx, cfg, app.deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.LogInfo("Server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogFatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.LogInfo("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError("forced shutdown", zap.Error(err))
		return
	}
	logger.LogInfo("Server stopped")
}

func presence(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}
