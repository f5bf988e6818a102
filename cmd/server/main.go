package main

import (
	"biteswipe/internal/app"
	"biteswipe/internal/config"
	"biteswipe/internal/pkg/logger"
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// @title BiteSwipe Session API
// @version 1.0
// @description Group restaurant decisions by swiping
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl := logger.New(cfg.App.LogFilePath, cfg.IsProduction())
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to start", zap.Error(err))
	}

	go a.RunSweeper(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("server starting",
			zap.String("port", cfg.App.Port),
			zap.String("store", cfg.Store.Driver),
			zap.Bool("redis", cfg.Store.RedisURI != ""),
			zap.Bool("nats", cfg.App.NatsURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	a.Close(shutdownCtx)

	zl.Info("server exited")
}
