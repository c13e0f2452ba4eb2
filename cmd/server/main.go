package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/database"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/logging"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/scheduler"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logging.SetGlobalLogger(logger)

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}

	logger.Info().
		Str("path", cfg.Database.Path).
		Str("version", version.Version).
		Msg("Connected to database")

	// Market data
	provider, err := marketdata.NewProvider(cfg.MarketData)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create market data provider")
	}
	prices := marketdata.NewCacheFromConfig(provider, cfg.MarketData, logger)

	// Create repositories
	instrumentRepo := repository.NewInstrumentRepository(db)

	// Create services
	services := api.Services{
		System:     service.NewSystemService(db),
		Instrument: service.NewInstrumentService(instrumentRepo, prices, cfg.Ledger.Timeout, logger),
		Portfolio:  service.NewPortfolioService(instrumentRepo, prices, cfg.Ledger.Timeout),
		Ledger:     service.NewLedgerService(instrumentRepo, cfg.Backup.Key, logger),
	}
	if cfg.Backup.Key == "" {
		logger.Warn().Msg("BACKUP_KEY is not set, ledger export and import are disabled")
	}

	// Background jobs
	sched := scheduler.New(logger)
	if cfg.MarketData.RefreshSchedule != "" {
		job := scheduler.NewPriceRefreshJob(services.Portfolio, prices, cfg.MarketData.Timeout*2, logger)
		if err := sched.AddJob(cfg.MarketData.RefreshSchedule, job); err != nil {
			logger.Fatal().Err(err).Str("schedule", cfg.MarketData.RefreshSchedule).Msg("Invalid PRICE_REFRESH_SCHEDULE")
		}

		// Warm the cache before the first tick
		go func() {
			if err := sched.RunNow(job); err != nil {
				logger.Warn().Err(err).Msg("Initial price refresh failed")
			}
		}()
	}
	sched.Start()

	// Create router
	router := api.NewRouter(services, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("provider", cfg.MarketData.Provider).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	sched.Stop()

	logger.Info().Msg("Server exited")
}
