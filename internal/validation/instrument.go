package validation

import (
	"strings"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/request"
)

const (
	maxNameLength       = 200
	maxStrategyLength   = 50
	maxNoteLength       = 1000
	maxInstallmentCount = 120
)

// ValidateCreateInstrument validates an instrument registration request.
//
// Required fields:
//   - symbol: exchange ticker, see ValidateSymbol
//
// Optional fields (validated if provided):
//   - name, strategy, note: length limits
//   - watchDate: YYYY-MM-DD
//   - capitalBudget: must not be negative
//   - installmentCount: between 1 and 120
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateInstrument(req request.CreateInstrumentRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}
	if len(req.Name) > maxNameLength {
		errors["name"] = "name must be 200 characters or less"
	}
	if len(req.Strategy) > maxStrategyLength {
		errors["strategy"] = "strategy must be 50 characters or less"
	}
	if len(req.Note) > maxNoteLength {
		errors["note"] = "note must be 1000 characters or less"
	}
	if strings.TrimSpace(req.WatchDate) != "" {
		if _, err := ParseTime(req.WatchDate); err != nil {
			errors["watchDate"] = err.Error()
		}
	}
	if req.CapitalBudget != nil && req.CapitalBudget.IsNegative() {
		errors["capitalBudget"] = "capitalBudget cannot be negative"
	}
	if req.InstallmentCount != nil && (*req.InstallmentCount < 1 || *req.InstallmentCount > maxInstallmentCount) {
		errors["installmentCount"] = "installmentCount must be between 1 and 120"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateUpdateInstrument validates an instrument update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
func ValidateUpdateInstrument(req request.UpdateInstrumentRequest) error {
	errors := make(map[string]string)

	if req.Name != nil && len(*req.Name) > maxNameLength {
		errors["name"] = "name must be 200 characters or less"
	}
	if req.Strategy != nil {
		if strings.TrimSpace(*req.Strategy) == "" {
			errors["strategy"] = "strategy cannot be empty"
		} else if len(*req.Strategy) > maxStrategyLength {
			errors["strategy"] = "strategy must be 50 characters or less"
		}
	}
	if req.Note != nil && len(*req.Note) > maxNoteLength {
		errors["note"] = "note must be 1000 characters or less"
	}
	if req.WatchDate != nil && strings.TrimSpace(*req.WatchDate) != "" {
		if _, err := ParseTime(*req.WatchDate); err != nil {
			errors["watchDate"] = err.Error()
		}
	}
	if req.CapitalBudget != nil && req.CapitalBudget.IsNegative() {
		errors["capitalBudget"] = "capitalBudget cannot be negative"
	}
	if req.InstallmentCount != nil && (*req.InstallmentCount < 1 || *req.InstallmentCount > maxInstallmentCount) {
		errors["installmentCount"] = "installmentCount must be between 1 and 120"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
