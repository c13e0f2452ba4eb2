package service_test

import (
	"context"
	"testing"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/accounting"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/testutil"
)

// TestPortfolioService_GetSummary tests the GetSummary method.
//
// WHY: The summary is the main dashboard figure. Prices must only be looked up
// for held instruments, and a provider outage must degrade to cost-basis
// valuation instead of failing the request.
func TestPortfolioService_GetSummary(t *testing.T) {
	t.Run("returns empty summary when no instruments exist", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockProvider())

		// Execute
		summary, err := svc.GetSummary(context.Background(), accounting.Filter{}, accounting.Order{})

		// Assert
		if err != nil {
			t.Fatalf("GetSummary() returned unexpected error: %v", err)
		}
		if len(summary.Holdings) != 0 {
			t.Errorf("Expected no holdings, got %d", len(summary.Holdings))
		}
		if !summary.TotalInvestedCapital.IsZero() || !summary.OverallReturnPercent.IsZero() {
			t.Errorf("Expected zero totals, got %+v", summary)
		}
	})

	t.Run("values held instruments at market price", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider().WithPrice("AAPL", "120")
		svc := testutil.NewTestPortfolioService(t, db, provider)

		testutil.CreateHolding(t, db, "AAPL", "100", 10)
		testutil.CreateHolding(t, db, "MSFT", "200", 5)
		testutil.CreateInstrument(t, db, "WATCH")

		// Execute
		summary, err := svc.GetSummary(context.Background(), accounting.Filter{}, accounting.Order{By: accounting.SortName})

		// Assert
		if err != nil {
			t.Fatalf("GetSummary() returned unexpected error: %v", err)
		}
		if len(summary.Holdings) != 3 {
			t.Fatalf("Expected 3 holdings, got %d", len(summary.Holdings))
		}
		if provider.PriceCalls != 2 {
			t.Errorf("Expected prices for held instruments only, got %d lookups", provider.PriceCalls)
		}
		if !summary.TotalInvestedCapital.Equal(dec("2000")) {
			t.Errorf("Expected invested 2000, got %s", summary.TotalInvestedCapital)
		}
		if !summary.TotalCurrentValue.Equal(dec("2200")) {
			t.Errorf("Expected current value 2200, got %s", summary.TotalCurrentValue)
		}
		if !summary.TotalUnrealizedProfit.Equal(dec("200")) {
			t.Errorf("Expected unrealized 200, got %s", summary.TotalUnrealizedProfit)
		}
		if !summary.OverallReturnPercent.Equal(dec("10")) {
			t.Errorf("Expected return 10%%, got %s", summary.OverallReturnPercent)
		}

		for _, h := range summary.Holdings {
			switch h.Symbol {
			case "AAPL":
				if h.Valuation.PriceFallback || !h.WeightPercent.Equal(dec("50")) {
					t.Errorf("Unexpected AAPL holding %+v", h)
				}
			case "MSFT":
				if !h.Valuation.PriceFallback || !h.Valuation.UnrealizedProfit.IsZero() {
					t.Errorf("Expected MSFT valued at cost, got %+v", h.Valuation)
				}
			case "WATCH":
				if h.Status != accounting.StatusWatch || !h.WeightPercent.IsZero() {
					t.Errorf("Unexpected WATCH holding %+v", h)
				}
			}
		}
	})

	t.Run("rate limited provider yields cost-basis totals", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockProvider().WithError(apperrors.ErrRateLimited)
		svc := testutil.NewTestPortfolioService(t, db, provider)

		testutil.CreateHolding(t, db, "AAPL", "100", 10)
		testutil.CreateHolding(t, db, "MSFT", "200", 5)

		// Execute
		summary, err := svc.GetSummary(context.Background(), accounting.Filter{}, accounting.Order{})

		// Assert
		if err != nil {
			t.Fatalf("GetSummary() returned unexpected error: %v", err)
		}
		if !summary.TotalCurrentValue.Equal(summary.TotalInvestedCapital) {
			t.Errorf("Expected current value to equal invested capital, got %s vs %s",
				summary.TotalCurrentValue, summary.TotalInvestedCapital)
		}
		if !summary.TotalUnrealizedProfit.IsZero() {
			t.Errorf("Expected zero unrealized profit, got %s", summary.TotalUnrealizedProfit)
		}
		for _, h := range summary.Holdings {
			if !h.Valuation.PriceFallback {
				t.Errorf("%s: expected price fallback", h.Symbol)
			}
		}
	})

	t.Run("applies filter and order", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockProvider())

		testutil.NewInstrument().WithSymbol("KO").WithStrategy("Dividend").WithBuy("2024-01-10", "50", 10).Build(t, db)
		testutil.NewInstrument().WithSymbol("PEP").WithStrategy("dividend").WithBuy("2024-01-10", "150", 10).Build(t, db)
		testutil.NewInstrument().WithSymbol("NVDA").WithStrategy("Long").WithBuy("2024-01-10", "500", 10).Build(t, db)
		testutil.NewInstrument().WithSymbol("O").WithStrategy("Dividend").WithBudget("1000", 2).Build(t, db)

		// Execute
		summary, err := svc.GetSummary(context.Background(),
			accounting.Filter{Strategy: "DIVIDEND", View: accounting.ViewHolding},
			accounting.Order{By: accounting.SortWeight, Descending: true},
		)

		// Assert
		if err != nil {
			t.Fatalf("GetSummary() returned unexpected error: %v", err)
		}
		if len(summary.Holdings) != 2 {
			t.Fatalf("Expected 2 holdings, got %d", len(summary.Holdings))
		}
		if summary.Holdings[0].Symbol != "PEP" || summary.Holdings[1].Symbol != "KO" {
			t.Errorf("Expected PEP before KO, got %s, %s", summary.Holdings[0].Symbol, summary.Holdings[1].Symbol)
		}
		if !summary.Holdings[0].WeightPercent.Equal(dec("75")) {
			t.Errorf("Expected PEP weight 75%%, got %s", summary.Holdings[0].WeightPercent)
		}
	})
}

// TestPortfolioService_TrackedSymbols tests the TrackedSymbols method.
//
// WHY: The scheduled price refresh only warms symbols that are actually held.
func TestPortfolioService_TrackedSymbols(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockProvider())

	testutil.CreateHolding(t, db, "AAPL", "100", 10)
	testutil.CreateInstrument(t, db, "WATCH")
	testutil.NewInstrument().WithSymbol("SOLD").WithBuy("2024-01-10", "10", 1).WithSell("2024-02-10", "12", 1).Build(t, db)

	symbols, err := svc.TrackedSymbols(context.Background())
	if err != nil {
		t.Fatalf("TrackedSymbols() returned unexpected error: %v", err)
	}
	if len(symbols) != 1 || symbols[0] != "AAPL" {
		t.Errorf("Expected [AAPL], got %v", symbols)
	}
}
