package accounting

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
)

// View narrows a summary by holding quantity.
type View string

const (
	ViewAll      View = "all"
	ViewHolding  View = "holding"  // units held
	ViewWatching View = "watching" // nothing held
)

// SortKey selects the column a summary is ordered by.
type SortKey string

const (
	SortNone     SortKey = ""
	SortInvested SortKey = "invested"
	SortName     SortKey = "name"
	SortProgress SortKey = "progress"
	SortWeight   SortKey = "weight"
)

// ValidView and ValidSortKey contain the accepted filter and sort values.
var (
	ValidView    = map[View]bool{ViewAll: true, ViewHolding: true, ViewWatching: true}
	ValidSortKey = map[SortKey]bool{SortInvested: true, SortName: true, SortProgress: true, SortWeight: true}
)

// Filter selects the instruments that take part in an aggregation.
// Zero values select everything.
type Filter struct {
	Strategy string
	View     View
	Status   Status
}

// Order describes how holdings are sorted. SortNone keeps input order.
type Order struct {
	By         SortKey
	Descending bool
}

// Holding is one instrument's line in a portfolio summary.
type Holding struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Strategy      string          `json:"strategy"`
	Status        Status          `json:"status"`
	Position      PositionState   `json:"position"`
	Valuation     Valuation       `json:"valuation"`
	Progress      Progress        `json:"progress"`
	WeightPercent decimal.Decimal `json:"weightPercent"`
}

// Summary totals a set of holdings.
type Summary struct {
	Holdings              []Holding       `json:"holdings"`
	TotalInvestedCapital  decimal.Decimal `json:"totalInvestedCapital"`
	TotalCurrentValue     decimal.Decimal `json:"totalCurrentValue"`
	TotalUnrealizedProfit decimal.Decimal `json:"totalUnrealizedProfit"`
	TotalRealizedProfit   decimal.Decimal `json:"totalRealizedProfit"`
	OverallReturnPercent  decimal.Decimal `json:"overallReturnPercent"`
}

// Aggregate reduces every instrument that passes filter, marks it against
// prices and totals the result. Instruments without a price in prices are
// valued at their average cost.
func Aggregate(instruments []model.Instrument, prices map[string]decimal.Decimal, filter Filter, order Order) Summary {
	summary := Summary{
		Holdings:              []Holding{},
		TotalInvestedCapital:  decimal.Zero,
		TotalCurrentValue:     decimal.Zero,
		TotalUnrealizedProfit: decimal.Zero,
		TotalRealizedProfit:   decimal.Zero,
		OverallReturnPercent:  decimal.Zero,
	}

	for _, inst := range instruments {
		if filter.Strategy != "" && !strings.EqualFold(filter.Strategy, inst.Strategy) {
			continue
		}

		state := ComputePosition(inst.Buys, inst.Sells)
		status := StatusOf(inst, state)

		switch filter.View {
		case ViewHolding:
			if state.QuantityHeld == 0 {
				continue
			}
		case ViewWatching:
			if state.QuantityHeld > 0 {
				continue
			}
		}
		if filter.Status != "" && filter.Status != status {
			continue
		}

		h := Holding{
			Symbol:        inst.Symbol,
			Name:          inst.Name,
			Strategy:      inst.Strategy,
			Status:        status,
			Position:      state,
			Valuation:     state.Valuate(prices[inst.Symbol]),
			Progress:      PlanProgress(inst.CapitalBudget, inst.InstallmentCount, state.InvestedCapital),
			WeightPercent: decimal.Zero,
		}
		summary.Holdings = append(summary.Holdings, h)

		summary.TotalInvestedCapital = summary.TotalInvestedCapital.Add(state.InvestedCapital)
		summary.TotalCurrentValue = summary.TotalCurrentValue.Add(h.Valuation.CurrentValue)
		summary.TotalRealizedProfit = summary.TotalRealizedProfit.Add(state.RealizedProfit)
	}

	summary.TotalUnrealizedProfit = summary.TotalCurrentValue.Sub(summary.TotalInvestedCapital)
	if summary.TotalInvestedCapital.IsPositive() {
		summary.OverallReturnPercent = summary.TotalUnrealizedProfit.Div(summary.TotalInvestedCapital).Mul(hundred)
		for i := range summary.Holdings {
			h := &summary.Holdings[i]
			h.WeightPercent = h.Position.InvestedCapital.Div(summary.TotalInvestedCapital).Mul(hundred)
		}
	}

	sortHoldings(summary.Holdings, order)
	return summary
}

func sortHoldings(holdings []Holding, order Order) {
	if order.By == SortNone {
		return
	}

	slices.SortStableFunc(holdings, func(a, b Holding) int {
		var c int
		switch order.By {
		case SortInvested:
			c = a.Position.InvestedCapital.Cmp(b.Position.InvestedCapital)
		case SortName:
			c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortProgress:
			c = a.Progress.RawPercent.Cmp(b.Progress.RawPercent)
		case SortWeight:
			c = a.WeightPercent.Cmp(b.WeightPercent)
		}
		if order.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.Symbol, b.Symbol)
	})
}
