package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/restaurantledger/settlement/api/internal/handler"
	"github.com/restaurantledger/settlement/api/internal/middleware"
	"github.com/restaurantledger/settlement/api/internal/taskqueue"
	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/internal/service"
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
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	shutdownTracer, err := tracing.InitTracer("settlement-api", cfg.JaegerEndpoint, logger)
	if err != nil {
		logger.Warn("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracer()

	database, err := db.NewDB(cfg.GetPostgresDSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	eventProcessor := service.NewEventProcessor(database.DB, logger)
	payoutGenerator := service.NewPayoutGenerator(database.DB, logger)
	ledgerRepo := repository.NewLedgerRepository(database.DB)
	payoutRepo := repository.NewPayoutRepository(database.DB)
	balanceCalculator := service.NewBalanceCalculator(ledgerRepo)

	queue := taskqueue.New(4, 64, logger)
	defer queue.Shutdown()

	eventHandler := handler.NewEventHandler(eventProcessor, logger)
	balanceHandler := handler.NewBalanceHandler(balanceCalculator, logger)
	payoutHandler := handler.NewPayoutHandler(payoutGenerator, payoutRepo, queue, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKey))

		r.Post("/processor/events", eventHandler.CreateEvent)

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/{restaurant_id}/balance", balanceHandler.GetBalance)
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/run", payoutHandler.RunBatch)
			r.Get("/{id}", payoutHandler.GetPayout)
			r.Post("/{restaurant_id}/generate", payoutHandler.GenerateSingle)
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.APIPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("settlement API starting", zap.Int("port", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
