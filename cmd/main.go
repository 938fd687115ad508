package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends"
	"trendwatch/internal/server"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	config, err := core.LoadConfig()
	if err != nil {
		core.NewLogger().Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := core.NewLoggerWithWriter(os.Stdout, core.ParseLevel(config.Log.Level))

	db, err := core.OpenSQLite(config.Database.Path, logger)
	if err != nil {
		logger.Error("Failed to open database", "path", config.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	registry := core.NewRegistry(logger)

	trendsFeature, err := trends.NewFeature(logger, db, trends.NewConfig(config))
	if err != nil {
		logger.Error("Failed to create trends feature", "error", err)
		os.Exit(1)
	}
	if err := registry.Register(trendsFeature); err != nil {
		logger.Error("Failed to register trends feature", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(config, logger, db, registry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down cleanly", "error", err)
		os.Exit(1)
	}
}
