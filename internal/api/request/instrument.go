package request

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CreateInstrumentRequest represents the request body for registering an instrument.
// Only the symbol is required; the rest defaults to a watch item.
type CreateInstrumentRequest struct {
	Symbol           string           `json:"symbol"`
	Name             string           `json:"name"`
	Strategy         string           `json:"strategy"`
	WatchDate        string           `json:"watchDate"`
	Note             string           `json:"note"`
	CapitalBudget    *decimal.Decimal `json:"capitalBudget,omitempty"`
	InstallmentCount *int             `json:"installmentCount,omitempty"`
}

type UpdateInstrumentRequest struct {
	Name             *string          `json:"name,omitempty"`
	Strategy         *string          `json:"strategy,omitempty"`
	WatchDate        *string          `json:"watchDate,omitempty"` // empty string clears the date
	Note             *string          `json:"note,omitempty"`
	CapitalBudget    *decimal.Decimal `json:"capitalBudget,omitempty"`
	InstallmentCount *int             `json:"installmentCount,omitempty"`
}

// SellPreviewQuery is the parsed query string of the sell preview endpoint.
// A zero Price means "use the current market price".
type SellPreviewQuery struct {
	Price    decimal.Decimal
	Quantity int64
}

// ParseSellPreviewQuery validates the price and quantity query parameters.
// quantity is required and must be positive; price is optional and must be
// positive when given.
func ParseSellPreviewQuery(priceParam, quantityParam string) (SellPreviewQuery, error) {
	q := SellPreviewQuery{Price: decimal.Zero}

	quantityParam = strings.TrimSpace(quantityParam)
	if quantityParam == "" {
		return SellPreviewQuery{}, errors.New("quantity is required")
	}
	qty, err := strconv.ParseInt(quantityParam, 10, 64)
	if err != nil || qty <= 0 {
		return SellPreviewQuery{}, fmt.Errorf("invalid quantity: %s", quantityParam)
	}
	q.Quantity = qty

	if priceParam = strings.TrimSpace(priceParam); priceParam != "" {
		price, err := decimal.NewFromString(priceParam)
		if err != nil || !price.IsPositive() {
			return SellPreviewQuery{}, fmt.Errorf("invalid price: %s", priceParam)
		}
		q.Price = price
	}

	return q, nil
}
