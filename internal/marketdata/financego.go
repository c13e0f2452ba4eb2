package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
)

// FinanceGoProvider reads prices through the piquette/finance-go client.
// The library has no context support, so calls run in a goroutine and are
// abandoned when ctx ends.
type FinanceGoProvider struct {
	now func() time.Time
}

// NewFinanceGoProvider creates a finance-go backed provider.
func NewFinanceGoProvider() *FinanceGoProvider {
	return &FinanceGoProvider{now: time.Now}
}

type result[T any] struct {
	value T
	err   error
}

func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	ch := make(chan result[T], 1)
	go func() {
		v, err := fn()
		ch <- result[T]{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.value, r.err
	}
}

// LatestPrice returns the regular market price of symbol.
func (p *FinanceGoProvider) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return withContext(ctx, func() (decimal.Decimal, error) {
		q, err := quote.Get(symbol)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
		}
		if q == nil || q.RegularMarketPrice <= 0 {
			return decimal.Zero, fmt.Errorf("no quote for %s: %w", symbol, apperrors.ErrSymbolNotFound)
		}
		return decimal.NewFromFloat(q.RegularMarketPrice), nil
	})
}

// History returns daily bars over period.
func (p *FinanceGoProvider) History(ctx context.Context, symbol string, period Period) ([]Bar, error) {
	end := p.now()
	start := period.Start(end)

	return withContext(ctx, func() ([]Bar, error) {
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		})

		bars := []Bar{}
		for iter.Next() {
			b := iter.Bar()
			bars = append(bars, Bar{
				Date:   time.Unix(int64(b.Timestamp), 0).UTC().Truncate(24 * time.Hour),
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: int64(b.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("failed to get history for %s: %w", symbol, err)
		}
		return bars, nil
	})
}
