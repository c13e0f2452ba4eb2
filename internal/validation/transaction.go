package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
)

// ValidTransactionType contains the allowed transaction type values.
var ValidTransactionType = map[string]bool{
	string(model.TransactionBuy): true, string(model.TransactionSell): true,
}

// ValidateCreateTransaction validates a transaction creation request.
//
// Required fields:
//   - type: buy or sell
//   - date: Must be in YYYY-MM-DD format
//   - price: Must be positive
//   - quantity: Must be positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Type) == "" {
		errors["type"] = "type is required"
	} else if !ValidTransactionType[strings.ToLower(req.Type)] {
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if _, err := ParseTime(req.Date); err != nil {
		errors["date"] = err.Error()
	}

	if !req.Price.IsPositive() {
		errors["price"] = "price must be positive"
	}

	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.Round != nil && *req.Round < 1 {
		errors["round"] = "round must be at least 1"
	}

	if len(req.Note) > maxNoteLength {
		errors["note"] = "note must be 1000 characters or less"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)

	if req.Date != nil {
		if strings.TrimSpace(*req.Date) == "" {
			errors["date"] = "date is required"
		} else if _, err := ParseTime(*req.Date); err != nil {
			errors["date"] = err.Error()
		}
	}
	if req.Price != nil && !req.Price.IsPositive() {
		errors["price"] = "price must be positive"
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}
	if req.Round != nil && *req.Round < 1 {
		errors["round"] = "round must be at least 1"
	}
	if req.Note != nil && len(*req.Note) > maxNoteLength {
		errors["note"] = "note must be 1000 characters or less"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
