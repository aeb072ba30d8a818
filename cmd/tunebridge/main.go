package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/jpp0ca/tunebridge/internal/adapters"
	"github.com/jpp0ca/tunebridge/internal/adapters/store"
	"github.com/jpp0ca/tunebridge/internal/app"
	"github.com/jpp0ca/tunebridge/internal/config"
	"github.com/jpp0ca/tunebridge/internal/logging"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	jobs, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open job store", "path", cfg.DatabasePath, "err", err)
	}
	defer jobs.Close()

	service := app.NewService(adapters.NewDefaultRegistry(cfg, nil, logger), app.Options{
		Workers:       cfg.MigrationWorkers,
		MinConfidence: cfg.MatchMinConfidence,
		Store:         jobs,
		Logger:        logger,
	})

	runner := NewRunner(RunnerOpts{
		Service: service,
		Logger:  logger,
	})

	if err := runner.Command().Run(ctx, os.Args); err != nil {
		logger.Error("command failed", "err", err)
		stop()
		jobs.Close()
		os.Exit(1)
	}
}
