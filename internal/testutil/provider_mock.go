package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/marketdata"
)

// MockProvider is an in-memory marketdata.Provider for testing.
// Unknown symbols fail with apperrors.ErrSymbolNotFound.
type MockProvider struct {
	mu sync.Mutex

	prices map[string]decimal.Decimal
	bars   map[string][]marketdata.Bar
	err    error

	// PriceCalls and HistoryCalls track how often each method was called
	PriceCalls   int
	HistoryCalls int
}

// NewMockProvider creates a mock provider without any prices.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		prices: make(map[string]decimal.Decimal),
		bars:   make(map[string][]marketdata.Bar),
	}
}

// WithPrice sets the latest price of symbol.
func (m *MockProvider) WithPrice(symbol, price string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = decimal.RequireFromString(price)
	return m
}

// WithBars sets the history of symbol.
func (m *MockProvider) WithBars(symbol string, bars []marketdata.Bar) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[symbol] = bars
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// LatestPrice returns the configured price.
func (m *MockProvider) LatestPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PriceCalls++
	if m.err != nil {
		return decimal.Zero, m.err
	}
	p, ok := m.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("mock %s: %w", symbol, apperrors.ErrSymbolNotFound)
	}
	return p, nil
}

// History returns the configured bars.
func (m *MockProvider) History(_ context.Context, symbol string, _ marketdata.Period) ([]marketdata.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.HistoryCalls++
	if m.err != nil {
		return nil, m.err
	}
	bars, ok := m.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", symbol, apperrors.ErrSymbolNotFound)
	}
	return bars, nil
}

// CreateMockBars generates days of daily bars ending at end, with closes
// rising by one from start.
func CreateMockBars(end time.Time, days int, start float64) []marketdata.Bar {
	bars := make([]marketdata.Bar, days)
	for i := range days {
		c := decimal.NewFromFloat(start + float64(i))
		bars[i] = marketdata.Bar{
			Date:   end.AddDate(0, 0, i-days+1).Truncate(24 * time.Hour),
			Open:   c,
			High:   c.Add(decimal.NewFromInt(1)),
			Low:    c.Sub(decimal.NewFromInt(1)),
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}
