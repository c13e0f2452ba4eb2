package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
)

// Services bundles the services the router dispatches to.
type Services struct {
	System     *service.SystemService
	Instrument *service.InstrumentService
	Portfolio  *service.PortfolioService
	Ledger     *service.LedgerService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/instrument", func(r chi.Router) {
			instrumentHandler := handlers.NewInstrumentHandler(services.Instrument)
			transactionHandler := handlers.NewTransactionHandler(services.Instrument)

			r.Get("/", instrumentHandler.Instruments)
			r.Post("/", instrumentHandler.CreateInstrument)

			r.Route("/{symbol}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateSymbolMiddleware)
				r.Get("/", instrumentHandler.Instrument)
				r.Put("/", instrumentHandler.UpdateInstrument)
				r.Delete("/", instrumentHandler.DeleteInstrument)
				r.Get("/sell-preview", instrumentHandler.SellPreview)
				r.Get("/history", instrumentHandler.PriceHistory)

				r.Post("/transaction", transactionHandler.CreateTransaction)
				r.Put("/transaction/{kind}/{index}", transactionHandler.UpdateTransaction)
				r.Delete("/transaction/{kind}/{index}", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(services.Portfolio)
			r.Get("/summary", portfolioHandler.Summary)
		})

		r.Route("/ledger", func(r chi.Router) {
			ledgerHandler := handlers.NewLedgerHandler(services.Ledger)
			r.Get("/export", ledgerHandler.Export)
			r.Post("/import", ledgerHandler.Import)
		})
	})

	return r
}
