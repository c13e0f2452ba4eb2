package request

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/accounting"
)

// SummaryQuery is the parsed query string of the portfolio summary endpoint.
type SummaryQuery struct {
	Filter accounting.Filter
	Order  accounting.Order
}

// ParseSummaryQuery extracts and validates summary filters from query parameters.
// All parameters are optional.
//
// Validation rules:
//   - view: all, holding or watching (defaults to all)
//   - status: watch, planned, holding or closed
//   - sort: invested, name, progress or weight (defaults to input order)
//   - order: asc or desc (defaults to desc when sort is set)
//
// Returns an error if any parameter fails validation.
func ParseSummaryQuery(strategyParam, viewParam, statusParam, sortParam, orderParam string) (SummaryQuery, error) {
	q := SummaryQuery{
		Filter: accounting.Filter{
			Strategy: strings.TrimSpace(strategyParam),
			View:     accounting.ViewAll,
		},
	}

	if viewParam != "" {
		view := accounting.View(strings.ToLower(strings.TrimSpace(viewParam)))
		if !accounting.ValidView[view] {
			return SummaryQuery{}, fmt.Errorf("invalid view: %s", viewParam)
		}
		q.Filter.View = view
	}

	if statusParam != "" {
		status := accounting.Status(strings.ToLower(strings.TrimSpace(statusParam)))
		if !accounting.ValidStatus[status] {
			return SummaryQuery{}, fmt.Errorf("invalid status: %s", statusParam)
		}
		q.Filter.Status = status
	}

	if sortParam != "" {
		key := accounting.SortKey(strings.ToLower(strings.TrimSpace(sortParam)))
		if !accounting.ValidSortKey[key] {
			return SummaryQuery{}, fmt.Errorf("invalid sort: %s", sortParam)
		}
		q.Order.By = key
		q.Order.Descending = true
	}

	switch strings.ToLower(strings.TrimSpace(orderParam)) {
	case "":
	case "asc":
		q.Order.Descending = false
	case "desc":
		q.Order.Descending = true
	default:
		return SummaryQuery{}, fmt.Errorf("invalid order: %s", orderParam)
	}

	return q, nil
}
