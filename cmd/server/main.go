package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	loyaltyapp "github.com/loyalty/backend/internal/application/loyalty"
	partnerapp "github.com/loyalty/backend/internal/application/partner"
	syncapp "github.com/loyalty/backend/internal/application/sync"
	tradeapp "github.com/loyalty/backend/internal/application/trade"
	"github.com/loyalty/backend/internal/domain/wawi"
	"github.com/loyalty/backend/internal/infrastructure/config"
	"github.com/loyalty/backend/internal/infrastructure/logger"
	"github.com/loyalty/backend/internal/infrastructure/persistence"
	"github.com/loyalty/backend/internal/infrastructure/scheduler"
	wawiinfra "github.com/loyalty/backend/internal/infrastructure/wawi"
	"github.com/loyalty/backend/internal/interfaces/http/handler"
	"github.com/loyalty/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	zapLogger, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("Starting loyalty backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDB(&cfg.Database, &cfg.Log, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = persistence.Close(db) }()

	// Repositories
	customerRepo := persistence.NewCustomerRepository(db)
	orderRepo := persistence.NewSalesOrderRepository(db)
	productRepo := persistence.NewProductRepository(db)
	attrRepo := persistence.NewProductAttributeRepository(db)
	queueRepo := persistence.NewQueueRepository(db)
	groupRepo := persistence.NewDiscountGroupRepository(db)
	walletRepo := persistence.NewWalletRepository(db)
	settingsRepo := persistence.NewSettingsRepository(db)
	credentialStore := persistence.NewSystemSettingsStore(db)

	// WAWI integration
	var searchClient wawi.SearchClient = wawiinfra.UnconfiguredClient{}
	if err := cfg.Wawi.Validate(); err != nil {
		zapLogger.Warn("WAWI integration not configured, sync is disabled", zap.Error(err))
		cfg.Sync.Enabled = false
	} else {
		tokens, err := wawiinfra.NewTokenManager(&cfg.Wawi, credentialStore, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to create WAWI token manager", zap.Error(err))
		}
		searchClient, err = wawiinfra.NewClient(&cfg.Wawi, tokens, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to create WAWI client", zap.Error(err))
		}
	}

	// Application services
	txManager := persistence.NewTransactionManager(db)
	accrual := loyaltyapp.NewAccrualService(txManager, queueRepo, groupRepo, walletRepo, settingsRepo, orderRepo, zapLogger)
	settings := loyaltyapp.NewSettingsService(settingsRepo, zapLogger)
	customers := partnerapp.NewCustomerService(customerRepo, zapLogger)
	orders := tradeapp.NewOrderService(orderRepo, zapLogger)
	orchestrator := syncapp.NewOrchestrator(searchClient, customerRepo, orderRepo, productRepo, attrRepo, accrual, &cfg.Sync, zapLogger)

	// Scheduler
	syncScheduler := scheduler.NewSyncScheduler(orchestrator, &cfg.Sync, zapLogger)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	// HTTP
	engine := router.New(router.Handlers{
		Customer: handler.NewCustomerHandler(customers, orders, zapLogger),
		Loyalty:  handler.NewLoyaltyHandler(accrual, settings, zapLogger),
		Sync:     handler.NewSyncHandler(orchestrator, zapLogger),
	}, zapLogger, cfg.App.Env)

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("Forced shutdown", zap.Error(err))
	}
}
