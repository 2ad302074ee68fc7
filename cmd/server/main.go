package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhorak/ibfolio/internal/api"
	"github.com/mhorak/ibfolio/internal/config"
	"github.com/mhorak/ibfolio/internal/database"
	"github.com/mhorak/ibfolio/internal/fx"
	"github.com/mhorak/ibfolio/internal/kvstore"
	"github.com/mhorak/ibfolio/internal/ledger"
	"github.com/mhorak/ibfolio/internal/market"
	"github.com/mhorak/ibfolio/internal/model"
	"github.com/mhorak/ibfolio/internal/repository"
	"github.com/mhorak/ibfolio/internal/service"
	"github.com/mhorak/ibfolio/internal/statement"
	"github.com/mhorak/ibfolio/internal/valuation"
	"github.com/mhorak/ibfolio/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Durable caches
	fxCache, err := kvstore.Open[float64](cfg.Data.FXCachePath)
	if err != nil {
		log.Fatalf("Failed to open FX cache: %v", err)
	}
	quoteCache, err := kvstore.Open[model.Quote](cfg.Data.QuoteCachePath)
	if err != nil {
		log.Fatalf("Failed to open quote cache: %v", err)
	}

	// Create repositories
	metadataRepo := repository.NewMetadataRepository(db)
	optionsRepo := repository.NewOptionsRepository(db)
	settingsRepo, err := repository.NewSettingsRepository(db, cfg.Provider.SecretKey)
	if err != nil {
		log.Fatalf("Failed to initialize settings repository: %v", err)
	}

	// External providers
	resolver := fx.NewResolver(
		cfg.Valuation.ReportingCurrency,
		fxCache,
		fx.NewCNBClient(cfg.Provider.FetchTimeout),
		fx.NewFrankfurterClient(cfg.Provider.FetchTimeout),
	)
	crumbStore := service.NewSettingsCrumbStore(settingsRepo)
	financeClient := yahoo.NewFinanceClient(cfg.Provider.FetchTimeout, crumbStore)
	marketService := market.NewService(financeClient, quoteCache, cfg.Provider.QuoteTTL)

	// Aggregation pipeline
	source := statement.NewDirSource(cfg.Data.StatementDir)
	reconstructor := ledger.NewReconstructor(resolver, cfg.Valuation.ReportingCurrency)
	engine := valuation.NewEngine(resolver, marketService, cfg.Valuation.ReportingCurrency, cfg.Valuation.DisplayCurrency)

	// Create services
	systemService := service.NewSystemService(db)
	portfolioService := service.NewPortfolioService(source, reconstructor, engine, metadataRepo)
	metadataService := service.NewMetadataService(metadataRepo, marketService)
	optionsService := service.NewOptionsService(optionsRepo)

	// Background cache warm-up
	refreshService := service.NewRefreshService(portfolioService, cfg.Provider.RefreshSchedule, 2*time.Minute)
	if err := refreshService.Start(); err != nil {
		log.Fatalf("Failed to start refresh scheduler: %v", err)
	}
	defer refreshService.Stop()

	// Create router
	router := api.NewRouter(systemService, portfolioService, metadataService, optionsService, marketService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
