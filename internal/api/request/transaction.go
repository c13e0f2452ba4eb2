package request

import "github.com/shopspring/decimal"

// CreateTransactionRequest represents the request body for recording a buy or sell.
// Round is only meaningful for buys and defaults to the next installment round.
type CreateTransactionRequest struct {
	Type     string          `json:"type"`
	Date     string          `json:"date"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Round    *int            `json:"round,omitempty"`
	Note     string          `json:"note"`
}

type UpdateTransactionRequest struct {
	Date     *string          `json:"date,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity *int64           `json:"quantity,omitempty"`
	Round    *int             `json:"round,omitempty"`
	Note     *string          `json:"note,omitempty"`
}
