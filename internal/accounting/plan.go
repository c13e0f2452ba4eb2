package accounting

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
)

// Progress describes how far the invested capital has come against the
// instrument's capital budget.
type Progress struct {
	CapitalBudget        decimal.Decimal `json:"capitalBudget"`
	InstallmentCount     int             `json:"installmentCount"`
	PerInstallmentTarget decimal.Decimal `json:"perInstallmentTarget"`
	InvestedCapital      decimal.Decimal `json:"investedCapital"`
	ProgressPercent      decimal.Decimal `json:"progressPercent"` // clamped to [0, 100]
	RawPercent           decimal.Decimal `json:"rawPercent"`      // unclamped, > 100 means over-allocated
}

// Slot is one installment of a plan. The i-th chronological buy fills slot i.
type Slot struct {
	Round          int              `json:"round"`
	Target         decimal.Decimal  `json:"target"`
	Date           *time.Time       `json:"date"`
	ActualPrice    *decimal.Decimal `json:"actualPrice"`
	ActualQuantity *int64           `json:"actualQuantity"`
	Pending        bool             `json:"pending"`
}

// Plan is the installment view of an instrument.
type Plan struct {
	Progress
	Slots     []Slot `json:"slots"`
	NextRound int    `json:"nextRound"`
	ExtraBuys int    `json:"extraBuys"` // buys beyond the planned installment count
}

// PlanProgress splits capitalBudget into installmentCount installments and
// measures investedCapital against it. An installment count below one is
// treated as one.
func PlanProgress(capitalBudget decimal.Decimal, installmentCount int, investedCapital decimal.Decimal) Progress {
	if installmentCount <= 0 {
		installmentCount = 1
	}

	p := Progress{
		CapitalBudget:        capitalBudget,
		InstallmentCount:     installmentCount,
		PerInstallmentTarget: capitalBudget.Div(decimal.NewFromInt(int64(installmentCount))),
		InvestedCapital:      investedCapital,
		ProgressPercent:      decimal.Zero,
		RawPercent:           decimal.Zero,
	}

	if capitalBudget.IsPositive() {
		p.RawPercent = investedCapital.Div(capitalBudget).Mul(hundred)
		p.ProgressPercent = decimal.Max(decimal.Zero, decimal.Min(hundred, p.RawPercent))
	}
	return p
}

// BuildPlan lays the instrument's valid buys over its installment slots.
func BuildPlan(inst model.Instrument, state PositionState) Plan {
	progress := PlanProgress(inst.CapitalBudget, inst.InstallmentCount, state.InvestedCapital)

	buys := make([]model.Transaction, 0, len(inst.Buys))
	for _, tx := range inst.Buys {
		if ValidateTransaction(tx) == nil {
			buys = append(buys, tx)
		}
	}
	slices.SortStableFunc(buys, func(a, b model.Transaction) int {
		return day(a.Date).Compare(day(b.Date))
	})

	plan := Plan{
		Progress:  progress,
		Slots:     make([]Slot, progress.InstallmentCount),
		NextRound: len(buys) + 1,
	}

	for i := range plan.Slots {
		slot := Slot{Round: i + 1, Target: progress.PerInstallmentTarget, Pending: true}
		if i < len(buys) {
			tx := buys[i]
			date := tx.Date
			price := tx.Price
			qty := tx.Quantity
			slot.Date = &date
			slot.ActualPrice = &price
			slot.ActualQuantity = &qty
			slot.Pending = false
		}
		plan.Slots[i] = slot
	}

	if len(buys) > progress.InstallmentCount {
		plan.ExtraBuys = len(buys) - progress.InstallmentCount
	}
	return plan
}

// EstimateQuantity returns how many whole units target buys at price.
func EstimateQuantity(target, price decimal.Decimal) int64 {
	if !price.IsPositive() || !target.IsPositive() {
		return 0
	}
	return target.Div(price).Floor().IntPart()
}
