// Package accounting turns an instrument's transaction ledger into position
// figures using the moving-average cost method. Everything in this package is
// pure: no I/O, no shared state, identical input gives identical output.
package accounting

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Decimal places kept for derived figures.
const (
	averageCostScale = 8
	amountScale      = 4
)

// Reasons a transaction is rejected by the reducer.
var (
	ErrMissingDate         = errors.New("transaction date is missing")
	ErrNonPositivePrice    = errors.New("transaction price must be positive")
	ErrNonPositiveQuantity = errors.New("transaction quantity must be positive")
)

// WarningKind classifies a noteworthy but non-fatal condition found while reducing.
type WarningKind string

const (
	// WarningOversell marks a sell larger than the quantity held at that point.
	// Holdings are clamped to zero.
	WarningOversell WarningKind = "oversell"
	// WarningNoCostBasis marks a sell processed while the average cost was zero,
	// typically a sell recorded before any buy. No profit is realized for it.
	WarningNoCostBasis WarningKind = "no_cost_basis"
)

// Warning is a condition that usually indicates a data-entry error.
type Warning struct {
	Kind        WarningKind       `json:"kind"`
	Transaction model.Transaction `json:"transaction"`
	Shortfall   int64             `json:"shortfall,omitempty"` // units sold beyond holdings
}

// RejectedTransaction is a transaction the reducer skipped because it is malformed.
type RejectedTransaction struct {
	Transaction model.Transaction `json:"transaction"`
	Reason      string            `json:"reason"`
}

// SellResult is the realized outcome of one sell.
type SellResult struct {
	Transaction    model.Transaction `json:"transaction"`
	AverageCost    decimal.Decimal   `json:"averageCost"` // basis the sell was realized against
	RealizedProfit decimal.Decimal   `json:"realizedProfit"`
	YieldPercent   decimal.Decimal   `json:"yieldPercent"`
}

// PositionState is the derived state of one instrument after replaying its ledger.
type PositionState struct {
	QuantityHeld    int64                 `json:"quantityHeld"`
	AverageCost     decimal.Decimal       `json:"averageCost"`
	InvestedCapital decimal.Decimal       `json:"investedCapital"`
	RealizedProfit  decimal.Decimal       `json:"realizedProfit"`
	BuyCount        int                   `json:"buyCount"`
	Sells           []SellResult          `json:"sells"`
	Rejected        []RejectedTransaction `json:"rejected,omitempty"`
	Warnings        []Warning             `json:"warnings,omitempty"`
}

// Valuation is a position marked against a market price.
type Valuation struct {
	CurrentPrice     decimal.Decimal `json:"currentPrice"`
	CurrentValue     decimal.Decimal `json:"currentValue"`
	UnrealizedProfit decimal.Decimal `json:"unrealizedProfit"`
	ReturnPercent    decimal.Decimal `json:"returnPercent"`
	PriceFallback    bool            `json:"priceFallback"` // true when the average cost stood in for a missing price
}

// SellPreview is the expected outcome of a sell that has not been recorded yet.
type SellPreview struct {
	RealizedProfit decimal.Decimal `json:"realizedProfit"`
	YieldPercent   decimal.Decimal `json:"yieldPercent"`
	Oversell       bool            `json:"oversell"`
}

// ValidateTransaction reports why a transaction cannot take part in the
// accounting, or nil when it can.
func ValidateTransaction(tx model.Transaction) error {
	if tx.Date.IsZero() {
		return ErrMissingDate
	}
	if !tx.Price.IsPositive() {
		return ErrNonPositivePrice
	}
	if tx.Quantity <= 0 {
		return ErrNonPositiveQuantity
	}
	return nil
}

type entry struct {
	tx   model.Transaction
	kind model.TransactionType
}

// ComputePosition replays buys and sells in chronological order and returns
// the resulting position.
//
// Transactions are ordered by calendar date; on the same date buys are applied
// before sells. A buy into an empty position sets the average cost to its
// price, otherwise the average is re-weighted. A sell realizes profit against
// the current average cost and never changes it. Holdings are clamped at zero.
//
// Malformed transactions are skipped and listed in Rejected.
func ComputePosition(buys, sells []model.Transaction) PositionState {
	state := PositionState{
		AverageCost:    decimal.Zero,
		RealizedProfit: decimal.Zero,
		Sells:          []SellResult{},
	}

	entries := make([]entry, 0, len(buys)+len(sells))
	for _, list := range []struct {
		txs  []model.Transaction
		kind model.TransactionType
	}{{buys, model.TransactionBuy}, {sells, model.TransactionSell}} {
		for _, tx := range list.txs {
			tx.Type = list.kind
			if err := ValidateTransaction(tx); err != nil {
				state.Rejected = append(state.Rejected, RejectedTransaction{Transaction: tx, Reason: err.Error()})
				continue
			}
			entries = append(entries, entry{tx: tx, kind: list.kind})
		}
	}

	slices.SortStableFunc(entries, compareEntries)

	for _, e := range entries {
		price := e.tx.Price
		qty := decimal.NewFromInt(e.tx.Quantity)

		switch e.kind {
		case model.TransactionBuy:
			if state.QuantityHeld == 0 {
				state.AverageCost = price
			} else {
				held := decimal.NewFromInt(state.QuantityHeld)
				state.AverageCost = held.Mul(state.AverageCost).
					Add(qty.Mul(price)).
					DivRound(held.Add(qty), averageCostScale)
			}
			state.QuantityHeld += e.tx.Quantity
			state.BuyCount++

		case model.TransactionSell:
			result := SellResult{
				Transaction:    e.tx,
				AverageCost:    state.AverageCost,
				RealizedProfit: decimal.Zero,
				YieldPercent:   decimal.Zero,
			}
			if state.AverageCost.IsPositive() {
				diff := price.Sub(state.AverageCost)
				result.RealizedProfit = diff.Mul(qty)
				result.YieldPercent = diff.Div(state.AverageCost).Mul(hundred)
				state.RealizedProfit = state.RealizedProfit.Add(result.RealizedProfit)
			} else {
				state.Warnings = append(state.Warnings, Warning{Kind: WarningNoCostBasis, Transaction: e.tx})
			}
			state.Sells = append(state.Sells, result)

			if e.tx.Quantity > state.QuantityHeld {
				state.Warnings = append(state.Warnings, Warning{
					Kind:        WarningOversell,
					Transaction: e.tx,
					Shortfall:   e.tx.Quantity - state.QuantityHeld,
				})
				state.QuantityHeld = 0
			} else {
				state.QuantityHeld -= e.tx.Quantity
			}
		}
	}

	state.InvestedCapital = decimal.NewFromInt(state.QuantityHeld).Mul(state.AverageCost).Round(amountScale)
	return state
}

// compareEntries orders by calendar day, then buys before sells.
func compareEntries(a, b entry) int {
	if c := day(a.tx.Date).Compare(day(b.tx.Date)); c != 0 {
		return c
	}
	return kindRank(a.kind) - kindRank(b.kind)
}

func kindRank(k model.TransactionType) int {
	if k == model.TransactionBuy {
		return 0
	}
	return 1
}

func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// Valuate marks the position against price. A non-positive price is treated
// as missing and the average cost is used instead, which yields zero
// unrealized profit.
func (s PositionState) Valuate(price decimal.Decimal) Valuation {
	v := Valuation{CurrentPrice: price}
	if !price.IsPositive() {
		v.CurrentPrice = s.AverageCost
		v.PriceFallback = true
	}

	held := decimal.NewFromInt(s.QuantityHeld)
	v.CurrentValue = held.Mul(v.CurrentPrice).Round(amountScale)
	v.UnrealizedProfit = v.CurrentValue.Sub(s.InvestedCapital)
	v.ReturnPercent = percentChange(v.CurrentPrice, s.AverageCost)
	return v
}

// PreviewSell computes what selling quantity at price would realize against
// the current average cost.
func PreviewSell(state PositionState, price decimal.Decimal, quantity int64) SellPreview {
	preview := SellPreview{
		RealizedProfit: decimal.Zero,
		YieldPercent:   percentChange(price, state.AverageCost),
		Oversell:       quantity > state.QuantityHeld,
	}
	if state.AverageCost.IsPositive() {
		preview.RealizedProfit = price.Sub(state.AverageCost).Mul(decimal.NewFromInt(quantity))
	}
	return preview
}

// percentChange returns (to-from)/from*100, or 0 when from is not positive.
func percentChange(to, from decimal.Decimal) decimal.Decimal {
	if !from.IsPositive() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(hundred)
}
