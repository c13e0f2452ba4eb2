package accounting

import "github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"

// Status is the lifecycle stage of an instrument. It is always derived from the
// ledger and never stored.
type Status string

const (
	StatusWatch   Status = "watch"
	StatusPlanned Status = "planned"
	StatusHolding Status = "holding"
	StatusClosed  Status = "closed"
)

// ValidStatus contains the allowed status values.
var ValidStatus = map[Status]bool{
	StatusWatch: true, StatusPlanned: true, StatusHolding: true, StatusClosed: true,
}

// StatusOf derives the lifecycle stage:
//
//	watch   -> no buys, no capital budget
//	planned -> no buys, capital budget set
//	holding -> at least one buy and units held
//	closed  -> had buys, all units sold
func StatusOf(inst model.Instrument, state PositionState) Status {
	switch {
	case state.BuyCount > 0 && state.QuantityHeld > 0:
		return StatusHolding
	case state.BuyCount > 0:
		return StatusClosed
	case inst.CapitalBudget.IsPositive():
		return StatusPlanned
	default:
		return StatusWatch
	}
}
