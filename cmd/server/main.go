package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"bankledger/internal/config"
	"bankledger/internal/events/kafka"
	"bankledger/internal/interfaces"
	"bankledger/internal/ledger"
	"bankledger/internal/logging"
	"bankledger/internal/metrics"
	"bankledger/internal/server"
	"bankledger/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger, err := logging.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	ledgerService := ledger.New(logger, publisher)

	var persist func() error
	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer store.Close()

		snap, err := store.Load(context.Background())
		if err != nil {
			logger.Fatal("failed to load snapshot", zap.Error(err))
		}
		if len(snap.Accounts) > 0 {
			ledgerService.Restore(snap)
			logger.Info("ledger restored from snapshot", zap.Int("accounts", len(snap.Accounts)))
		}

		persist = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return store.Save(ctx, ledgerService.Snapshot())
		}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, "bankledger")

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(ledgerService, logger, m, persist).Router(registry),
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if persist != nil {
		if err := persist(); err != nil {
			logger.Error("final snapshot failed", zap.Error(err))
		}
	}
}
