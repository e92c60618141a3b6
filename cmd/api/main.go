package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/spendwise/internal/api/handlers"
	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/app"
	"github.com/dvloznov/spendwise/internal/auth"
	"github.com/dvloznov/spendwise/internal/config"
	"github.com/dvloznov/spendwise/internal/jobs/inmemory"
	"github.com/dvloznov/spendwise/internal/logger"
)

func main() {
	envFile := flag.String("env", ".env", "Optional .env file to load before reading the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	var tokens *auth.TokenService
	if cfg.AuthEnabled() {
		if tokens, err = auth.NewTokenService(cfg.JWTSecret); err != nil {
			log.Fatal().Err(err).Msg("Invalid JWT secret")
		}
	} else {
		log.Warn().Str("user_id", cfg.DefaultUserID).Msg("JWT_SECRET not set, all requests act as the default user")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(cfg.ImportWorkers))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, a.ImportJobHandler()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start import workers")
	}
	log.Info().Int("workers", cfg.ImportWorkers).Msg("Import workers started")

	mux := handlers.NewRouter(handlers.Deps{
		Transactions:   a.Transactions,
		Budgets:        a.Budgets,
		Investments:    a.Investments,
		Subscriptions:  a.Subscriptions,
		Rules:          a.Rules,
		Categorizer:    a.Categorizer,
		Importer:       a.Importer,
		Archive:        a.Archive,
		Publisher:      jobQueue,
		JobStore:       jobStore,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log,
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(tokens, cfg.DefaultUserID, "/health")(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight imports
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
