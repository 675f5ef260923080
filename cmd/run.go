package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fightbook/api"
	"fightbook/config"
	"fightbook/database"
	"fightbook/events"
	"fightbook/repository"
	"fightbook/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()

	log.WithField("environment", cfg.Environment).Info("Starting fightbook")

	if err := database.RunMigrationsWithURL(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	accountService := service.NewAccountService(uowFactory, cfg)
	placementService := service.NewPlacementService(uowFactory, cfg)
	refundService := service.NewRefundService(uowFactory, cfg)
	settlementService := service.NewSettlementService(uowFactory, cfg, service.NewNameMatchResolver())
	leaderboardService := service.NewLeaderboardService(uowFactory)
	processor := service.NewResultsProcessor(uowFactory, refundService, settlementService, eventBus)

	server := api.NewServer(accountService, placementService, settlementService, refundService, leaderboardService, processor)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Periodically re-process active events so results land even when no
	// snapshot is pushed between polls.
	go pollResults(ctx, processor, cfg.ResultsPollInterval)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err).Warn("HTTP server shutdown failed")
	}

	log.Info("Shutdown completed")
	return nil
}

func pollResults(ctx context.Context, processor service.ResultsProcessor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := processor.ProcessActiveEvents(ctx); err != nil {
				log.WithField("error", err).Error("Failed to process active events")
			}
		}
	}
}
