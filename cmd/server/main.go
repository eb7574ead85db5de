// Package main is the entry point for the kardex stock ledger server.
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

	"kardex/internal/config"
	"kardex/internal/domain/catalogs/location"
	"kardex/internal/domain/documents/adjustment"
	"kardex/internal/domain/documents/delivery"
	"kardex/internal/domain/documents/production"
	"kardex/internal/domain/documents/transfer"
	"kardex/internal/domain/registers/stock"
	"kardex/internal/domain/rules"
	v1 "kardex/internal/infrastructure/http/v1"
	"kardex/internal/infrastructure/remote/dropbox"
	"kardex/internal/infrastructure/report"
	"kardex/internal/infrastructure/storage/postgres"
	"kardex/internal/infrastructure/storage/postgres/catalog_repo"
	"kardex/internal/infrastructure/storage/postgres/document_repo"
	"kardex/internal/infrastructure/storage/postgres/register_repo"
	"kardex/pkg/logger"
	"kardex/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.DevMode,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting kardex server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:               cfg.DatabaseURL,
		MaxConns:          cfg.DB.MaxConns,
		MinConns:          cfg.DB.MinConns,
		ConnMaxLifetime:   cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime:   cfg.DB.ConnMaxIdleTime,
		HealthCheckPeriod: cfg.DB.HealthCheckPeriod,
	})
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")
	pool.LogStats(ctx)

	txManager := postgres.NewTxManager(pool)
	txManager.SetTimeouts(cfg.StatementTimeout, cfg.LockTimeout)

	// --- Repositories ---
	itemRepo := catalog_repo.NewItemRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	locationRepo := catalog_repo.NewLocationRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	adjustmentRepo := document_repo.NewAdjustmentRepo(txManager)
	transferRepo := document_repo.NewTransferRepo(txManager)
	formulaRepo := document_repo.NewFormulaRepo(txManager)
	orderRepo := document_repo.NewOrderRepo(txManager)
	deliveryRepo := document_repo.NewDeliveryRepo(txManager)
	settingsRepo := postgres.NewSettingsRepo(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Shared domain components ---
	resolver := location.NewResolver(locationRepo)
	stockService := stock.NewService(stockRepo)
	numeratorService := numerator.NewWithSource(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	guard, err := rules.CompileGuard(cfg.Rules.AdjustmentGuard)
	if err != nil {
		log.Fatalw("failed to compile adjustment guard", "error", err)
	}

	// --- Document services ---
	adjustmentService := adjustment.NewService(
		adjustmentRepo, warehouseRepo, itemRepo, resolver,
		stockService, numeratorService, guard, auditService, txManager,
	)
	transferService := transfer.NewService(
		transferRepo, warehouseRepo, itemRepo, resolver,
		stockService, numeratorService, auditService, txManager,
	)
	formulaService := production.NewFormulaService(formulaRepo, itemRepo, txManager)
	orderService := production.NewOrderService(
		orderRepo, formulaRepo, warehouseRepo, itemRepo, resolver,
		stockService, numeratorService, auditService, txManager,
	)
	deliveryService := delivery.NewService(
		deliveryRepo, warehouseRepo, itemRepo, resolver,
		stockService, auditService, txManager,
	)

	// --- Production consumption job ---
	var consumptionService *adjustment.ConsumptionService
	if cfg.Consumption.Enabled {
		files := dropbox.New(dropbox.Config{
			AppKey:       cfg.Dropbox.AppKey,
			AppSecret:    cfg.Dropbox.AppSecret,
			RefreshToken: cfg.Dropbox.RefreshToken,
		})
		consumptionService = adjustment.NewConsumptionService(
			adjustment.ConsumptionConfig{
				Warehouse:      cfg.Consumption.Warehouse,
				FileSettingKey: cfg.Consumption.FileSettingKey,
			},
			adjustmentRepo, warehouseRepo, itemRepo, resolver,
			stockService, stockRepo, numeratorService, auditService,
			settingsRepo, files, report.NewJSONCodec(), txManager,
		)
		log.Infow("production consumption enabled",
			"warehouse", cfg.Consumption.Warehouse,
			"times", cfg.Consumption.Times,
		)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:      log,
		JWTSecret:   cfg.JWTSecret,
		Pool:        pool,
		Adjustments: adjustmentService,
		Consumption: consumptionService,
		Transfers:   transferService,
		Orders:      orderService,
		Formulas:    formulaService,
		Deliveries:  deliveryService,
		Stock:       stockRepo,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Consumption scheduler ---
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if consumptionService != nil {
		schedule, err := parseSchedule(cfg.Consumption.Times)
		if err != nil {
			log.Fatalw("invalid consumption schedule", "error", err)
		}
		go runScheduler(schedulerCtx, log, schedule, consumptionService)
	}

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
