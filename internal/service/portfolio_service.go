package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/accounting"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/repository"
)

// PortfolioService computes portfolio-wide figures from the ledger and the
// latest market prices.
type PortfolioService struct {
	instrumentRepo *repository.InstrumentRepository
	prices         *marketdata.Cache
	ledgerTimeout  time.Duration
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(instrumentRepo *repository.InstrumentRepository, prices *marketdata.Cache, ledgerTimeout time.Duration) *PortfolioService {
	return &PortfolioService{
		instrumentRepo: instrumentRepo,
		prices:         prices,
		ledgerTimeout:  ledgerTimeout,
	}
}

// GetSummary values every instrument passing filter and totals the result.
//
// Prices are only fetched for instruments that can appear in the summary.
// Instruments whose price cannot be obtained are valued at their average cost
// and flagged with PriceFallback.
func (s *PortfolioService) GetSummary(ctx context.Context, filter accounting.Filter, order accounting.Order) (accounting.Summary, error) {
	instruments, err := s.loadInstruments(ctx)
	if err != nil {
		return accounting.Summary{}, err
	}

	symbols := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		if accounting.ComputePosition(inst.Buys, inst.Sells).QuantityHeld > 0 {
			symbols = append(symbols, inst.Symbol)
		}
	}
	prices := s.prices.Prices(ctx, symbols)

	return accounting.Aggregate(instruments, prices, filter, order), nil
}

// TrackedSymbols returns the symbols whose prices are worth keeping warm:
// every instrument that currently holds units.
func (s *PortfolioService) TrackedSymbols(ctx context.Context) ([]string, error) {
	instruments, err := s.loadInstruments(ctx)
	if err != nil {
		return nil, err
	}

	symbols := []string{}
	for _, inst := range instruments {
		if accounting.ComputePosition(inst.Buys, inst.Sells).QuantityHeld > 0 {
			symbols = append(symbols, inst.Symbol)
		}
	}
	return symbols, nil
}

func (s *PortfolioService) loadInstruments(ctx context.Context) ([]model.Instrument, error) {
	if s.ledgerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ledgerTimeout)
		defer cancel()
	}

	instruments, err := s.instrumentRepo.LoadInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveInstruments, err)
	}
	return instruments, nil
}
