package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SymbolSource lists the symbols whose prices should be kept warm.
type SymbolSource interface {
	TrackedSymbols(ctx context.Context) ([]string, error)
}

// PriceRefresher fetches fresh prices and reports how many succeeded.
type PriceRefresher interface {
	Refresh(ctx context.Context, symbols []string) int
}

// PriceRefreshJob warms the price cache for every held instrument.
type PriceRefreshJob struct {
	symbols   SymbolSource
	refresher PriceRefresher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job. timeout bounds one run.
func NewPriceRefreshJob(symbols SymbolSource, refresher PriceRefresher, timeout time.Duration, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		symbols:   symbols,
		refresher: refresher,
		timeout:   timeout,
		log:       log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes the prices of all tracked symbols.
func (j *PriceRefreshJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	symbols, err := j.symbols.TrackedSymbols(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked symbols: %w", err)
	}
	if len(symbols) == 0 {
		return nil
	}

	refreshed := j.refresher.Refresh(ctx, symbols)
	j.log.Info().
		Int("symbols", len(symbols)).
		Int("refreshed", refreshed).
		Msg("Prices refreshed")
	return nil
}
