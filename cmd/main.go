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

	"github.com/courtside/match-scoring/config"
	"github.com/courtside/match-scoring/db"
	"github.com/courtside/match-scoring/handlers"
	"github.com/courtside/match-scoring/repositories"
	api "github.com/courtside/match-scoring/routes"
	"github.com/courtside/match-scoring/scoring"
	"github.com/courtside/match-scoring/services"
	"github.com/courtside/match-scoring/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	hub := scoring.NewHub(logger)
	go hub.Run()
	logger.Info("broadcast hub started")

	matchRepo := repositories.NewPostgresMatchRepository()
	setRepo := repositories.NewPostgresSetRepository()
	gameRepo := repositories.NewPostgresGameRepository()
	pointRepo := repositories.NewPostgresPointRepository()
	logger.Info("repositories initialized")

	// The ledger archive only runs when object storage is configured.
	var archiver services.Archiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = services.NewArchiveService(dbConn, matchRepo, setRepo, gameRepo, pointRepo, uploader, logger)
		logger.Info("ledger archive enabled")
	} else {
		logger.Info("ledger archive disabled: object storage not configured")
	}

	locker := services.NewMatchLocker(cfg.LockTimeout)
	scoringService := services.NewScoringService(
		dbConn,
		matchRepo,
		setRepo,
		gameRepo,
		pointRepo,
		locker,
		hub,
		archiver,
		logger,
	)
	snapshotService := services.NewSnapshotService(dbConn, matchRepo, setRepo, gameRepo, pointRepo)
	logger.Info("services initialized")

	scoreHandler := handlers.NewScoreHandler(scoringService, snapshotService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, snapshotService, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, scoreHandler, webSocketHandler, []byte(cfg.JWTSecretKey))
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
