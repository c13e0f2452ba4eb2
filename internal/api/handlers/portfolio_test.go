package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/accounting"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/testutil"
)

func TestPortfolioHandler_Summary(t *testing.T) {
	t.Run("returns summary", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider().WithPrice("AAPL", "110").WithPrice("MSFT", "190")
		handler := NewPortfolioHandler(testutil.NewTestPortfolioService(t, db, provider))

		testutil.CreateHolding(t, db, "AAPL", "100", 10)
		testutil.CreateHolding(t, db, "MSFT", "200", 10)
		testutil.CreateInstrument(t, db, "WATCH")

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/summary",
			map[string]string{"view": "holding", "sort": "invested"}, nil)
		w := httptest.NewRecorder()

		handler.Summary(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response accounting.Summary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if len(response.Holdings) != 2 || response.Holdings[0].Symbol != "MSFT" {
			t.Errorf("Expected MSFT first by invested capital, got %+v", response.Holdings)
		}
		if response.TotalInvestedCapital.String() != "3000" || response.TotalCurrentValue.String() != "3000" {
			t.Errorf("Unexpected totals %s / %s", response.TotalInvestedCapital, response.TotalCurrentValue)
		}
	})

	t.Run("degrades when the provider is rate limited", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider().WithError(apperrors.ErrRateLimited)
		handler := NewPortfolioHandler(testutil.NewTestPortfolioService(t, db, provider))
		testutil.CreateHolding(t, db, "AAPL", "100", 10)

		w := httptest.NewRecorder()
		handler.Summary(w, httptest.NewRequest(http.MethodGet, "/api/portfolio/summary", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response accounting.Summary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if !response.TotalUnrealizedProfit.IsZero() || !response.Holdings[0].Valuation.PriceFallback {
			t.Errorf("Expected cost-basis valuation, got %+v", response)
		}
	})

	t.Run("returns 400 for invalid query", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewPortfolioHandler(testutil.NewTestPortfolioService(t, db, testutil.NewMockProvider()))

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/summary",
			map[string]string{"sort": "colour"}, nil)
		w := httptest.NewRecorder()

		handler.Summary(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}
