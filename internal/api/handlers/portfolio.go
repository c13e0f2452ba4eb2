package handlers

import (
	"net/http"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Summary handles GET requests for the portfolio summary.
// Holdings without a market price are valued at their average cost and
// flagged with priceFallback.
//
// Endpoint: GET /api/portfolio/summary?strategy=&view=&status=&sort=&order=
// Response: 200 OK with accounting.Summary
// Error: 400 Bad Request if a query parameter is invalid
// Error: 500 Internal Server Error if the ledger cannot be read
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q, err := request.ParseSummaryQuery(
		query.Get("strategy"),
		query.Get("view"),
		query.Get("status"),
		query.Get("sort"),
		query.Get("order"),
	)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	summary, err := h.portfolioService.GetSummary(r.Context(), q.Filter, q.Order)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToGetPortfolioSummary.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
