package marketdata

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/yahoo"
)

// YahooProvider reads prices from the Yahoo chart endpoint.
type YahooProvider struct {
	client *yahoo.FinanceClient
}

// NewYahooProvider creates a provider backed by client.
func NewYahooProvider(client *yahoo.FinanceClient) *YahooProvider {
	return &YahooProvider{client: client}
}

// LatestPrice returns the regular market price, or the last daily close.
func (p *YahooProvider) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	resp, err := p.client.QueryRange(ctx, symbol, "5d")
	if err != nil {
		return decimal.Zero, err
	}
	chart, err := yahoo.ParseChart(resp)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse chart for %s: %w", symbol, err)
	}
	price, ok := chart.LatestClose()
	if !ok || price <= 0 {
		return decimal.Zero, fmt.Errorf("no price for %s: %w", symbol, apperrors.ErrSymbolNotFound)
	}
	return decimal.NewFromFloat(price), nil
}

// History returns daily bars over period.
func (p *YahooProvider) History(ctx context.Context, symbol string, period Period) ([]Bar, error) {
	resp, err := p.client.QueryRange(ctx, symbol, string(period))
	if err != nil {
		return nil, err
	}
	chart, err := yahoo.ParseChart(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart for %s: %w", symbol, err)
	}

	bars := make([]Bar, 0, len(chart.Indicators))
	for _, ind := range chart.Indicators {
		bars = append(bars, Bar{
			Date:   ind.Date,
			Open:   decimal.NewFromFloat(ind.PriceOpen),
			High:   decimal.NewFromFloat(ind.PriceHigh),
			Low:    decimal.NewFromFloat(ind.PriceLow),
			Close:  decimal.NewFromFloat(ind.PriceClose),
			Volume: ind.Volume,
		})
	}
	return bars, nil
}
