package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/restaurantledger/settlement/publisher/internal/publisher"
	"github.com/restaurantledger/settlement/shared/config"
	"github.com/restaurantledger/settlement/shared/db"
	"github.com/restaurantledger/settlement/shared/tracing"
	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	shutdownTracer, err := tracing.InitTracer("settlement-publisher", cfg.JaegerEndpoint, logger)
	if err != nil {
		logger.Warn("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracer()

	database, err := db.NewDB(cfg.GetPostgresDSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	outboxPublisher := publisher.NewOutboxPublisher(
		database.DB,
		cfg.KafkaBrokers,
		cfg.KafkaLedgerTopic,
		cfg.PublisherBatchSize,
		cfg.PublisherInterval,
		logger,
	)
	defer outboxPublisher.Close()

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})
		if err := http.ListenAndServe(":8082", nil); err != nil {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := outboxPublisher.Start(ctx); err != nil {
		logger.Fatal("publisher failed", zap.Error(err))
	}

	logger.Info("publisher stopped")
}

func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
