// Package marketdata fetches latest prices and daily price history for
// instruments and caches them. Provider failures never propagate past the
// Cache: callers receive "no price" and value positions at average cost.
package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a history lookback window.
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
	Period5Years  Period = "5y"
)

// DefaultPeriod is used when no period is requested.
const DefaultPeriod = Period1Year

// ValidPeriods contains the supported lookback windows.
var ValidPeriods = map[Period]bool{
	Period1Month: true, Period3Months: true, Period6Months: true,
	Period1Year: true, Period2Years: true, Period5Years: true,
}

// ParsePeriod parses a period query value, defaulting to one year.
func ParsePeriod(s string) (Period, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultPeriod, nil
	}
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !ValidPeriods[p] {
		return "", fmt.Errorf("invalid period: %s", s)
	}
	return p, nil
}

// Start returns the first day of the window ending at end.
func (p Period) Start(end time.Time) time.Time {
	switch p {
	case Period1Month:
		return end.AddDate(0, -1, 0)
	case Period3Months:
		return end.AddDate(0, -3, 0)
	case Period6Months:
		return end.AddDate(0, -6, 0)
	case Period2Years:
		return end.AddDate(-2, 0, 0)
	case Period5Years:
		return end.AddDate(-5, 0, 0)
	default:
		return end.AddDate(-1, 0, 0)
	}
}

// Bar is one daily OHLCV record.
type Bar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Provider is a source of market data. Implementations return an error for
// unknown symbols, rate limiting and network failures.
type Provider interface {
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	History(ctx context.Context, symbol string, period Period) ([]Bar, error)
}
