package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/accounting"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/validation"
)

// recentTransactionLimit is the number of transactions shown on the detail view.
const recentTransactionLimit = 5

// InstrumentService handles instrument and ledger operations.
// Every mutation reads the stored instrument, computes the new value and
// writes it back in one store transaction; nothing is cached in memory.
type InstrumentService struct {
	instrumentRepo *repository.InstrumentRepository
	prices         *marketdata.Cache
	ledgerTimeout  time.Duration
	log            zerolog.Logger
	now            func() time.Time
}

// NewInstrumentService creates a new InstrumentService. A zero ledgerTimeout
// disables the per-call store deadline.
func NewInstrumentService(
	instrumentRepo *repository.InstrumentRepository,
	prices *marketdata.Cache,
	ledgerTimeout time.Duration,
	log zerolog.Logger,
) *InstrumentService {
	return &InstrumentService{
		instrumentRepo: instrumentRepo,
		prices:         prices,
		ledgerTimeout:  ledgerTimeout,
		log:            log.With().Str("component", "ledger").Logger(),
		now:            time.Now,
	}
}

// InstrumentListItem is one row of the instrument list.
type InstrumentListItem struct {
	Symbol           string            `json:"symbol"`
	Name             string            `json:"name"`
	Strategy         string            `json:"strategy"`
	Status           accounting.Status `json:"status"`
	WatchDate        *time.Time        `json:"watchDate,omitempty"`
	QuantityHeld     int64             `json:"quantityHeld"`
	AverageCost      decimal.Decimal   `json:"averageCost"`
	InvestedCapital  decimal.Decimal   `json:"investedCapital"`
	CapitalBudget    decimal.Decimal   `json:"capitalBudget"`
	InstallmentCount int               `json:"installmentCount"`
	BuyCount         int               `json:"buyCount"`
}

// NextBuy estimates the next installment purchase at the current price.
type NextBuy struct {
	Round    int             `json:"round"`
	Target   decimal.Decimal `json:"target"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// InstrumentDetail is the full view of one instrument.
type InstrumentDetail struct {
	Instrument         model.Instrument            `json:"instrument"`
	Status             accounting.Status           `json:"status"`
	Position           accounting.PositionState    `json:"position"`
	Valuation          accounting.Valuation        `json:"valuation"`
	Plan               accounting.Plan             `json:"plan"`
	RecentTransactions []model.TransactionResponse `json:"recentTransactions"`
	NextBuy            *NextBuy                    `json:"nextBuy,omitempty"`
}

// PriceMarker places a recorded transaction on a price chart.
type PriceMarker struct {
	Date     time.Time             `json:"date"`
	Type     model.TransactionType `json:"type"`
	Price    decimal.Decimal       `json:"price"`
	Quantity int64                 `json:"quantity"`
}

// PriceHistory is daily price history with the instrument's trades overlaid.
type PriceHistory struct {
	Symbol      string            `json:"symbol"`
	Period      marketdata.Period `json:"period"`
	AverageCost decimal.Decimal   `json:"averageCost"`
	Bars        []marketdata.Bar  `json:"bars"`
	Markers     []PriceMarker     `json:"markers"`
}

func (s *InstrumentService) ledgerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.ledgerTimeout > 0 {
		return context.WithTimeout(ctx, s.ledgerTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *InstrumentService) load(ctx context.Context, symbol string) (model.Instrument, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()
	return s.instrumentRepo.GetInstrument(ctx, symbol)
}

// mutate applies fn to a copy of the stored instrument and persists the result.
func (s *InstrumentService) mutate(ctx context.Context, symbol string, fn func(*model.Instrument) error) (model.Instrument, accounting.PositionState, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	stored, err := s.instrumentRepo.GetInstrument(ctx, symbol)
	if err != nil {
		return model.Instrument{}, accounting.PositionState{}, err
	}

	inst := stored.Clone()
	if err := fn(&inst); err != nil {
		return model.Instrument{}, accounting.PositionState{}, err
	}
	inst.UpdatedAt = s.now().UTC()

	state := accounting.ComputePosition(inst.Buys, inst.Sells)

	if err := s.instrumentRepo.SaveInstrument(ctx, inst); err != nil {
		return model.Instrument{}, accounting.PositionState{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToSaveInstrument, err)
	}
	s.logWarnings(inst.Symbol, state)

	return inst, state, nil
}

func (s *InstrumentService) logWarnings(symbol string, state accounting.PositionState) {
	for _, w := range state.Warnings {
		e := s.log.Warn().
			Str("symbol", symbol).
			Str("kind", string(w.Kind)).
			Str("date", w.Transaction.Date.Format("2006-01-02")).
			Int64("quantity", w.Transaction.Quantity)
		if w.Kind == accounting.WarningOversell {
			e = e.Int64("shortfall", w.Shortfall)
		}
		e.Msg("ledger warning")
	}
	for _, r := range state.Rejected {
		s.log.Warn().
			Str("symbol", symbol).
			Str("type", string(r.Transaction.Type)).
			Str("reason", r.Reason).
			Msg("transaction skipped")
	}
}

// ListInstruments returns every instrument with its derived status and position.
func (s *InstrumentService) ListInstruments(ctx context.Context) ([]InstrumentListItem, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	instruments, err := s.instrumentRepo.LoadInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveInstruments, err)
	}

	items := make([]InstrumentListItem, 0, len(instruments))
	for _, inst := range instruments {
		state := accounting.ComputePosition(inst.Buys, inst.Sells)
		items = append(items, InstrumentListItem{
			Symbol:           inst.Symbol,
			Name:             inst.Name,
			Strategy:         inst.Strategy,
			Status:           accounting.StatusOf(inst, state),
			WatchDate:        inst.WatchDate,
			QuantityHeld:     state.QuantityHeld,
			AverageCost:      state.AverageCost,
			InvestedCapital:  state.InvestedCapital,
			CapitalBudget:    inst.CapitalBudget,
			InstallmentCount: inst.InstallmentCount,
			BuyCount:         state.BuyCount,
		})
	}
	return items, nil
}

// GetInstrumentDetail returns the position, valuation, plan and recent
// activity of one instrument. A missing market price falls back to the
// average cost.
func (s *InstrumentService) GetInstrumentDetail(ctx context.Context, symbol string) (InstrumentDetail, error) {
	inst, err := s.load(ctx, symbol)
	if err != nil {
		return InstrumentDetail{}, err
	}

	state := accounting.ComputePosition(inst.Buys, inst.Sells)
	price, hasPrice := s.prices.Price(ctx, inst.Symbol)

	detail := InstrumentDetail{
		Instrument:         inst,
		Status:             accounting.StatusOf(inst, state),
		Position:           state,
		Valuation:          state.Valuate(price),
		Plan:               accounting.BuildPlan(inst, state),
		RecentTransactions: recentTransactions(inst, recentTransactionLimit),
	}

	if hasPrice && detail.Plan.PerInstallmentTarget.IsPositive() {
		detail.NextBuy = &NextBuy{
			Round:    detail.Plan.NextRound,
			Target:   detail.Plan.PerInstallmentTarget,
			Price:    price,
			Quantity: accounting.EstimateQuantity(detail.Plan.PerInstallmentTarget, price),
		}
	}

	return detail, nil
}

// recentTransactions returns the latest transactions across both lists,
// newest first, each with the index used to edit it.
func recentTransactions(inst model.Instrument, limit int) []model.TransactionResponse {
	all := make([]model.TransactionResponse, 0, len(inst.Buys)+len(inst.Sells))
	for _, kind := range []model.TransactionType{model.TransactionBuy, model.TransactionSell} {
		for i, t := range inst.Transactions(kind) {
			t.Type = kind
			all = append(all, model.TransactionResponse{Transaction: t, Symbol: inst.Symbol, Index: i})
		}
	}

	slices.SortStableFunc(all, func(a, b model.TransactionResponse) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// CreateInstrument registers a new watch item. The request must be validated.
func (s *InstrumentService) CreateInstrument(ctx context.Context, req request.CreateInstrumentRequest) (model.Instrument, error) {
	now := s.now().UTC()
	inst := model.Instrument{
		Symbol:           validation.NormalizeSymbol(req.Symbol),
		Name:             strings.TrimSpace(req.Name),
		Strategy:         strings.TrimSpace(req.Strategy),
		Note:             req.Note,
		CapitalBudget:    decimal.Zero,
		InstallmentCount: model.DefaultInstallmentCount,
		Buys:             []model.Transaction{},
		Sells:            []model.Transaction{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if inst.Name == "" {
		inst.Name = inst.Symbol
	}
	if inst.Strategy == "" {
		inst.Strategy = model.DefaultStrategy
	}
	if req.CapitalBudget != nil {
		inst.CapitalBudget = *req.CapitalBudget
	}
	if req.InstallmentCount != nil {
		inst.InstallmentCount = *req.InstallmentCount
	}
	if req.WatchDate != "" {
		d, err := validation.ParseTime(req.WatchDate)
		if err != nil {
			return model.Instrument{}, err
		}
		inst.WatchDate = &d
	} else {
		d := now.Truncate(24 * time.Hour)
		inst.WatchDate = &d
	}

	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	if err := s.instrumentRepo.CreateInstrument(ctx, inst); err != nil {
		return model.Instrument{}, err
	}
	return inst, nil
}

// UpdateInstrument changes the descriptive and plan fields of an instrument.
func (s *InstrumentService) UpdateInstrument(ctx context.Context, symbol string, req request.UpdateInstrumentRequest) (model.Instrument, error) {
	inst, _, err := s.mutate(ctx, symbol, func(inst *model.Instrument) error {
		if req.Name != nil {
			inst.Name = strings.TrimSpace(*req.Name)
		}
		if req.Strategy != nil {
			inst.Strategy = strings.TrimSpace(*req.Strategy)
		}
		if req.Note != nil {
			inst.Note = *req.Note
		}
		if req.CapitalBudget != nil {
			inst.CapitalBudget = *req.CapitalBudget
		}
		if req.InstallmentCount != nil {
			inst.InstallmentCount = *req.InstallmentCount
		}
		if req.WatchDate != nil {
			if *req.WatchDate == "" {
				inst.WatchDate = nil
			} else {
				d, err := validation.ParseTime(*req.WatchDate)
				if err != nil {
					return err
				}
				inst.WatchDate = &d
			}
		}
		return nil
	})
	return inst, err
}

// DeleteInstrument removes an instrument together with its transactions.
func (s *InstrumentService) DeleteInstrument(ctx context.Context, symbol string) error {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	if err := s.instrumentRepo.DeleteInstrument(ctx, symbol); err != nil {
		return err
	}
	s.prices.Invalidate(symbol)
	return nil
}

// AddTransaction appends a buy or sell to the instrument's ledger. Buys
// without an explicit round are assigned the next installment round.
func (s *InstrumentService) AddTransaction(ctx context.Context, symbol string, req request.CreateTransactionRequest) (model.TransactionResponse, error) {
	kind, err := validation.ParseTransactionKind(req.Type)
	if err != nil {
		return model.TransactionResponse{}, err
	}
	date, err := validation.ParseTime(req.Date)
	if err != nil {
		return model.TransactionResponse{}, err
	}

	var added model.TransactionResponse
	_, _, err = s.mutate(ctx, symbol, func(inst *model.Instrument) error {
		t := model.Transaction{
			Type:      kind,
			Date:      date,
			Price:     req.Price,
			Quantity:  req.Quantity,
			Note:      req.Note,
			CreatedAt: s.now().UTC(),
		}
		if kind == model.TransactionBuy {
			if req.Round != nil {
				t.Round = *req.Round
			} else {
				t.Round = accounting.ComputePosition(inst.Buys, nil).BuyCount + 1
			}
		}

		list := append(inst.Transactions(kind), t)
		inst.SetTransactions(kind, list)
		added = model.TransactionResponse{Transaction: t, Symbol: inst.Symbol, Index: len(list) - 1}
		return nil
	})
	if err != nil {
		return model.TransactionResponse{}, err
	}
	return added, nil
}

// UpdateTransaction replaces fields of the transaction at index in the buy or
// sell list.
func (s *InstrumentService) UpdateTransaction(ctx context.Context, symbol string, kind model.TransactionType, index int, req request.UpdateTransactionRequest) (model.TransactionResponse, error) {
	var updated model.TransactionResponse
	_, _, err := s.mutate(ctx, symbol, func(inst *model.Instrument) error {
		list := inst.Transactions(kind)
		if index < 0 || index >= len(list) {
			return apperrors.ErrTransactionNotFound
		}

		t := list[index]
		if req.Date != nil {
			d, err := validation.ParseTime(*req.Date)
			if err != nil {
				return err
			}
			t.Date = d
		}
		if req.Price != nil {
			t.Price = *req.Price
		}
		if req.Quantity != nil {
			t.Quantity = *req.Quantity
		}
		if req.Round != nil && kind == model.TransactionBuy {
			t.Round = *req.Round
		}
		if req.Note != nil {
			t.Note = *req.Note
		}
		t.Type = kind

		list[index] = t
		inst.SetTransactions(kind, list)
		updated = model.TransactionResponse{Transaction: t, Symbol: inst.Symbol, Index: index}
		return nil
	})
	if err != nil {
		return model.TransactionResponse{}, err
	}
	return updated, nil
}

// DeleteTransaction removes the transaction at index from the buy or sell
// list. Later transactions shift down by one.
func (s *InstrumentService) DeleteTransaction(ctx context.Context, symbol string, kind model.TransactionType, index int) error {
	_, _, err := s.mutate(ctx, symbol, func(inst *model.Instrument) error {
		list := inst.Transactions(kind)
		if index < 0 || index >= len(list) {
			return apperrors.ErrTransactionNotFound
		}
		inst.SetTransactions(kind, slices.Delete(list, index, index+1))
		return nil
	})
	return err
}

// PreviewSell estimates the realized profit of selling quantity at price.
// A zero price uses the current market price, falling back to the average cost.
func (s *InstrumentService) PreviewSell(ctx context.Context, symbol string, price decimal.Decimal, quantity int64) (accounting.SellPreview, error) {
	inst, err := s.load(ctx, symbol)
	if err != nil {
		return accounting.SellPreview{}, err
	}
	state := accounting.ComputePosition(inst.Buys, inst.Sells)

	if !price.IsPositive() {
		if p, ok := s.prices.Price(ctx, inst.Symbol); ok {
			price = p
		} else {
			price = state.AverageCost
		}
	}
	return accounting.PreviewSell(state, price, quantity), nil
}

// GetPriceHistory returns daily bars over period with the instrument's buys
// and sells as markers. Bars are empty when the provider is unavailable.
func (s *InstrumentService) GetPriceHistory(ctx context.Context, symbol string, period marketdata.Period) (PriceHistory, error) {
	inst, err := s.load(ctx, symbol)
	if err != nil {
		return PriceHistory{}, err
	}
	state := accounting.ComputePosition(inst.Buys, inst.Sells)
	bars := s.prices.History(ctx, inst.Symbol, period)

	start := period.Start(s.now().UTC()).Truncate(24 * time.Hour)
	markers := []PriceMarker{}
	for _, kind := range []model.TransactionType{model.TransactionBuy, model.TransactionSell} {
		for _, t := range inst.Transactions(kind) {
			if accounting.ValidateTransaction(t) != nil || t.Date.Before(start) {
				continue
			}
			markers = append(markers, PriceMarker{Date: t.Date, Type: kind, Price: t.Price, Quantity: t.Quantity})
		}
	}
	slices.SortStableFunc(markers, func(a, b PriceMarker) int {
		return a.Date.Compare(b.Date)
	})

	return PriceHistory{
		Symbol:      inst.Symbol,
		Period:      period,
		AverageCost: state.AverageCost,
		Bars:        bars,
		Markers:     markers,
	}, nil
}
