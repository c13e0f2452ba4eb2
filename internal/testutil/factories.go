package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/repository"
)

// InstrumentBuilder provides a fluent interface for creating test instruments.
//
// Example usage:
//
//	// Watch item with defaults
//	inst := testutil.NewInstrument().Build(t, db)
//
//	// Holding with a plan
//	inst := testutil.NewInstrument().
//	    WithSymbol("005930.KS").
//	    WithBudget("3000000", 3).
//	    WithBuy("2024-01-10", "72500", 10).
//	    WithSell("2024-03-01", "80000", 4).
//	    Build(t, db)
type InstrumentBuilder struct {
	inst model.Instrument
}

// NewInstrument creates an InstrumentBuilder with sensible defaults.
func NewInstrument() *InstrumentBuilder {
	symbol := MakeSymbol("TEST")
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return &InstrumentBuilder{
		inst: model.Instrument{
			Symbol:           symbol,
			Name:             MakeInstrumentName(symbol),
			Strategy:         model.DefaultStrategy,
			CapitalBudget:    decimal.Zero,
			InstallmentCount: model.DefaultInstallmentCount,
			Buys:             []model.Transaction{},
			Sells:            []model.Transaction{},
			CreatedAt:        created,
			UpdatedAt:        created,
		},
	}
}

// WithSymbol sets a custom symbol.
func (b *InstrumentBuilder) WithSymbol(symbol string) *InstrumentBuilder {
	b.inst.Symbol = symbol
	return b
}

// WithName sets a custom name.
func (b *InstrumentBuilder) WithName(name string) *InstrumentBuilder {
	b.inst.Name = name
	return b
}

// WithStrategy sets a custom strategy tag.
func (b *InstrumentBuilder) WithStrategy(strategy string) *InstrumentBuilder {
	b.inst.Strategy = strategy
	return b
}

// WithWatchDate sets the watch date, given as YYYY-MM-DD.
func (b *InstrumentBuilder) WithWatchDate(date string) *InstrumentBuilder {
	d := MustDate(date)
	b.inst.WatchDate = &d
	return b
}

// WithNote sets a custom note.
func (b *InstrumentBuilder) WithNote(note string) *InstrumentBuilder {
	b.inst.Note = note
	return b
}

// WithBudget sets the capital budget and installment count.
func (b *InstrumentBuilder) WithBudget(budget string, installments int) *InstrumentBuilder {
	b.inst.CapitalBudget = decimal.RequireFromString(budget)
	b.inst.InstallmentCount = installments
	return b
}

// WithCreatedAt sets the registration time, which orders LoadInstruments.
func (b *InstrumentBuilder) WithCreatedAt(at time.Time) *InstrumentBuilder {
	b.inst.CreatedAt = at
	b.inst.UpdatedAt = at
	return b
}

// WithBuy appends a buy. Its round is the position in the buy list.
func (b *InstrumentBuilder) WithBuy(date, price string, quantity int64) *InstrumentBuilder {
	b.inst.Buys = append(b.inst.Buys, NewTransaction(model.TransactionBuy, date, price, quantity))
	b.inst.Buys[len(b.inst.Buys)-1].Round = len(b.inst.Buys)
	return b
}

// WithSell appends a sell.
func (b *InstrumentBuilder) WithSell(date, price string, quantity int64) *InstrumentBuilder {
	b.inst.Sells = append(b.inst.Sells, NewTransaction(model.TransactionSell, date, price, quantity))
	return b
}

// Value returns the instrument without storing it.
func (b *InstrumentBuilder) Value() model.Instrument {
	return b.inst.Clone()
}

// Build stores the instrument through the ledger store and returns it.
func (b *InstrumentBuilder) Build(t *testing.T, db *sql.DB) model.Instrument {
	t.Helper()

	inst := b.Value()
	if err := repository.NewInstrumentRepository(db).CreateInstrument(context.Background(), inst); err != nil {
		t.Fatalf("Failed to create test instrument: %v", err)
	}
	return inst
}

// NewTransaction creates a transaction from string inputs.
//
// Example usage:
//
//	tx := testutil.NewTransaction(model.TransactionBuy, "2024-01-10", "72500", 10)
func NewTransaction(kind model.TransactionType, date, price string, quantity int64) model.Transaction {
	return model.Transaction{
		ID:        MakeID(),
		Type:      kind,
		Date:      MustDate(date),
		Price:     decimal.RequireFromString(price),
		Quantity:  quantity,
		CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// MustDate parses YYYY-MM-DD as a UTC date and panics on bad input.
func MustDate(date string) time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return d
}

// Convenience functions

// CreateInstrument creates a watch item with the given symbol.
//
// Example usage:
//
//	inst := testutil.CreateInstrument(t, db, "AAPL")
func CreateInstrument(t *testing.T, db *sql.DB, symbol string) model.Instrument {
	t.Helper()
	return NewInstrument().WithSymbol(symbol).Build(t, db)
}

// CreateHolding creates an instrument holding quantity units bought at price.
//
// Example usage:
//
//	inst := testutil.CreateHolding(t, db, "AAPL", "150", 10)
func CreateHolding(t *testing.T, db *sql.DB, symbol, price string, quantity int64) model.Instrument {
	t.Helper()
	return NewInstrument().
		WithSymbol(symbol).
		WithBudget("10000", 3).
		WithBuy("2024-01-10", price, quantity).
		Build(t, db)
}
