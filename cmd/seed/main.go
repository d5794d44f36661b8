package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/wdym/internal/config"
	"github.com/timmy/wdym/internal/logger"
	"github.com/timmy/wdym/internal/repository"
	"github.com/timmy/wdym/internal/service"
	"github.com/timmy/wdym/internal/source/catalog"
	"github.com/timmy/wdym/internal/storage"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "wdym-seed",
	})
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	catalogPath := flag.String("catalog", "", "Path to catalog YAML (defaults to seed.catalog_path)")
	workers := flag.Int("workers", 0, "Parallel image workers (defaults to seed.workers)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if *catalogPath == "" {
		*catalogPath = cfg.Seed.CatalogPath
	}
	if *workers <= 0 {
		*workers = cfg.Seed.Workers
	}

	// Seeding always creates the schema.
	cfg.Database.AutoMigrate = true
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objectStorage, err := storage.FromConfig(&cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}
	if objectStorage != nil {
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	}

	seedService := service.NewSeedService(
		repository.NewMemeRepository(db),
		repository.NewUserRepository(db),
		objectStorage,
		appLogger,
		&service.SeedConfig{
			Workers:     *workers,
			HTTPTimeout: cfg.Seed.HTTPTimeout,
		},
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	src := catalog.NewAdapter(*catalogPath)
	appLogger.WithFields(logger.Fields{
		"source":  src.GetDisplayName(),
		"workers": *workers,
	}).Info("Starting seed")

	stats, err := seedService.SeedFromSource(ctx, src)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to seed from catalog")
	}
	if stats.Failed > 0 {
		appLogger.WithField("failed", stats.Failed).Warn("Some memes were not seeded")
		os.Exit(1)
	}
}
