package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/KirkDiggler/charsheet/internal/config"
	"github.com/KirkDiggler/charsheet/internal/logging"
	"github.com/KirkDiggler/charsheet/internal/services/tabs"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := buildEnvironment(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := newCLIApp(env.manager)
	runErr := app.RunContext(ctx, os.Args)

	// ctx may already be cancelled by a signal; tabs still get their last save
	flushCtx, cancel := context.WithTimeout(context.Background(), tabs.DefaultSaveTimeout)
	if err := env.manager.FlushAll(flushCtx); err != nil {
		logger.Warn("failed to save open tabs before exit", zap.Error(err))
	}
	cancel()

	if err := env.Close(); err != nil {
		logger.Warn("failed to close stores", zap.Error(err))
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}
