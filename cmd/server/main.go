// Package main is the entry point for the tradebook journal server.
// It records trades in portfolios, computes realized P&L on close and serves
// per-portfolio analytics over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/di"
	"github.com/aristath/tradebook/internal/server"
	"github.com/aristath/tradebook/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from the environment (.env supported)
// 2. Initializes logging
// 3. Wires all dependencies via the DI container (database, repositories, services, jobs)
// 4. Starts metrics collection, the job scheduler and the HTTP server
// 5. Waits for a shutdown signal and stops everything in reverse order
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting tradebook")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Count lifecycle events for /metrics
	unsubscribe := container.Metrics.SubscribeTo(container.EventBus)
	defer unsubscribe()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	container.Scheduler.Stop()
	log.Info().Msg("Server stopped")
}
