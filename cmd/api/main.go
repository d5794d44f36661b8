package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/wdym/internal/api"
	"github.com/timmy/wdym/internal/api/handler"
	"github.com/timmy/wdym/internal/api/middleware"
	"github.com/timmy/wdym/internal/config"
	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/logger"
	"github.com/timmy/wdym/internal/repository"
	"github.com/timmy/wdym/internal/service"
	"github.com/timmy/wdym/internal/storage"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.ValidateServer(); err != nil {
		appLogger.WithError(err).Fatal("Invalid server config")
	}

	location, err := cfg.Game.Location()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load display timezone")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to get database handle")
	}
	defer sqlDB.Close()

	memeRepo := repository.NewMemeRepository(db)
	gameRepo := repository.NewGameRepository(db)
	userRepo := repository.NewUserRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if count, err := memeRepo.Count(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to count memes")
	} else if count < domain.RoundsPerGame {
		appLogger.WithField("memes", count).Warn("Meme pool is too small for a full game; run cmd/seed")
	}

	// Without object storage, meme references are served as stored.
	objectStorage, err := storage.FromConfig(&cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	sampler := service.NewRoundSampler(memeRepo, objectStorage, nil)
	ledger := service.NewSessionLedger(gameRepo, memeRepo)
	gameService := service.NewGameService(sampler, ledger, appLogger)
	historyService := service.NewHistoryService(userRepo, gameRepo, objectStorage, location)
	authService := service.NewAuthService(userRepo, &service.AuthConfig{
		Secret: cfg.Auth.SessionSecret,
		TTL:    cfg.Auth.SessionTTL,
	})
	sweepService := service.NewSweepService(gameRepo, appLogger, &service.SweepConfig{
		Interval: cfg.Game.SweepInterval,
		Window:   domain.RetentionWindow,
	})

	router := api.SetupRouter(&api.Services{
		Game:    gameService,
		History: historyService,
		Auth:    authService,
		DB:      sqlDB,
	}, &api.RouterConfig{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		Cookie: handler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.SecureCookie,
		},
	}, appLogger)

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweepService.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	cancel()
	<-sweepDone

	appLogger.Info("Server exited")
}
