package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultInstallmentCount is used when an instrument is registered without a plan.
const DefaultInstallmentCount = 3

// DefaultStrategy is the strategy tag assigned when none is given.
const DefaultStrategy = "Long"

// Instrument represents a tracked stock: a watch item, a planned position or a
// holding. It owns its buy and sell transaction lists.
type Instrument struct {
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	Strategy         string          `json:"strategy"`
	WatchDate        *time.Time      `json:"watchDate,omitempty"`
	Note             string          `json:"note,omitempty"`
	CapitalBudget    decimal.Decimal `json:"capitalBudget"`
	InstallmentCount int             `json:"installmentCount"`
	Buys             []Transaction   `json:"buys"`
	Sells            []Transaction   `json:"sells"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate the transaction lists without
// touching the original snapshot.
func (i Instrument) Clone() Instrument {
	c := i
	if i.WatchDate != nil {
		d := *i.WatchDate
		c.WatchDate = &d
	}
	c.Buys = slices.Clone(i.Buys)
	c.Sells = slices.Clone(i.Sells)
	return c
}

// Transactions returns the buy or sell list for the given type.
func (i *Instrument) Transactions(t TransactionType) []Transaction {
	if t == TransactionSell {
		return i.Sells
	}
	return i.Buys
}

// SetTransactions replaces the buy or sell list for the given type.
func (i *Instrument) SetTransactions(t TransactionType, txs []Transaction) {
	if t == TransactionSell {
		i.Sells = txs
		return
	}
	i.Buys = txs
}
