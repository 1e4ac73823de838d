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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stocktrack/stocktrack-backend/internal/stock/events"
	"github.com/stocktrack/stocktrack-backend/internal/stock/handler"
	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/pkg/config"
	"github.com/stocktrack/stocktrack-backend/pkg/database"
	"github.com/stocktrack/stocktrack-backend/pkg/httputil"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
	"github.com/stocktrack/stocktrack-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("stock-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("stock-service", cfg.Server.Environment)
	log.Info().Msg("starting Stock Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	amqpPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "stock-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	publisher := events.NewStockEventPublisher(amqpPublisher, log)

	// Repositories
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Services
	alertService := service.NewAlertService(alertRepo, productRepo, movementRepo, publisher, log, cfg.Alerts)
	productService := service.NewProductService(productRepo, alertService, publisher, log)
	movementService := service.NewMovementService(db, movementRepo, productRepo, alertService, publisher, log)
	dashboardService := service.NewDashboardService(statsRepo, log)

	// Handlers
	productHandler := handler.NewProductHandler(productService, cfg.Alerts.LowStockThreshold, log)
	movementHandler := handler.NewMovementHandler(movementService, log)
	alertHandler := handler.NewAlertHandler(alertService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)
	exportHandler := handler.NewExportHandler(productService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background alert sweep
	sweeper := service.NewAlertSweeper(alertService, productRepo, cfg.Alerts.SweepInterval, log)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Create router
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "stock-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Use(httputil.Auth(cfg.JWT.Secret, log))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/expiring", productHandler.ListExpiring)
			r.Get("/expired", productHandler.ListExpired)
			r.Get("/low-stock", productHandler.ListLowStock)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
			r.Get("/{id}/movements", movementHandler.ListByProduct)
			r.Post("/{id}/movements", movementHandler.Record)
		})

		r.Get("/movements", movementHandler.List)

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertHandler.List)
			r.Get("/{id}", alertHandler.Get)
			r.Put("/{id}/resolve", alertHandler.Resolve)
		})

		r.Get("/dashboard/stats", dashboardHandler.Stats)

		r.Get("/export/products.csv", exportHandler.ExportProductsCSV)
		r.Get("/export/facets", exportHandler.Facets)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the sweeper before the server drains
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
