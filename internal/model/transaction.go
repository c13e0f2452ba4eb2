package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes buy and sell events in the ledger.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Transaction represents a single buy or sell recorded against an instrument.
// Price is the per-unit price, Quantity the number of whole units.
type Transaction struct {
	ID        string          `json:"id"`
	Type      TransactionType `json:"type"`
	Date      time.Time       `json:"date"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Round     int             `json:"round,omitempty"` // installment round of a buy, 0 for sells
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
}

// Amount returns price * quantity.
func (t Transaction) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// TransactionResponse represents a transaction enriched with its position in the
// instrument's buy or sell list, which is the handle used for edit and delete.
type TransactionResponse struct {
	Transaction
	Symbol string `json:"symbol"`
	Index  int    `json:"index"`
}
