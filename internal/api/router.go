package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mhorak/ibfolio/internal/api/handlers"
	custommiddleware "github.com/mhorak/ibfolio/internal/api/middleware"
	"github.com/mhorak/ibfolio/internal/config"
	"github.com/mhorak/ibfolio/internal/market"
	"github.com/mhorak/ibfolio/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	portfolioService *service.PortfolioService,
	metadataService *service.MetadataService,
	optionsService *service.OptionsService,
	marketService *market.Service,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", portfolioHandler.Portfolio)
			r.Get("/costbasis", portfolioHandler.CostBasis)
		})
		r.Get("/performance", portfolioHandler.Performance)
		r.Post("/upload", portfolioHandler.Upload)

		r.Route("/metadata", func(r chi.Router) {
			metadataHandler := handlers.NewMetadataHandler(metadataService)
			r.Get("/", metadataHandler.List)
			r.Route("/{symbol}", func(r chi.Router) {
				r.Get("/", metadataHandler.Get)
				r.Put("/", metadataHandler.Upsert)
				r.Delete("/", metadataHandler.Delete)
			})
		})

		r.Route("/watchlist", func(r chi.Router) {
			watchlistHandler := handlers.NewWatchlistHandler(metadataService)
			r.Get("/", watchlistHandler.List)
			r.Post("/", watchlistHandler.Add)
			r.Get("/quotes", watchlistHandler.Quotes)
			r.Delete("/{symbol}", watchlistHandler.Remove)
		})

		r.Route("/options", func(r chi.Router) {
			optionsHandler := handlers.NewOptionsHandler(optionsService, portfolioService)
			r.Get("/", optionsHandler.List)
			r.Post("/", optionsHandler.Create)
			r.Get("/stats", optionsHandler.Stats)
			r.Post("/import", optionsHandler.Import)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Put("/", optionsHandler.Update)
				r.Delete("/", optionsHandler.Delete)
			})
		})

		quoteHandler := handlers.NewQuoteHandler(marketService)
		r.Get("/quote", quoteHandler.Quote)
		r.Get("/market-data/{symbol}/ohlcv", quoteHandler.OHLCV)
	})

	return r
}
