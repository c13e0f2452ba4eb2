package request

import (
	"testing"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/accounting"
)

func TestParseSummaryQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q, err := ParseSummaryQuery("", "", "", "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.Filter.View != accounting.ViewAll {
			t.Errorf("Expected view all, got %s", q.Filter.View)
		}
		if q.Order.By != accounting.SortNone {
			t.Errorf("Expected no sort, got %s", q.Order.By)
		}
	})

	t.Run("sort defaults to descending", func(t *testing.T) {
		q, err := ParseSummaryQuery("", "", "", "Weight", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.Order.By != accounting.SortWeight || !q.Order.Descending {
			t.Errorf("Expected weight desc, got %+v", q.Order)
		}
	})

	t.Run("all parameters", func(t *testing.T) {
		q, err := ParseSummaryQuery(" Long ", "holding", "HOLDING", "name", "asc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := accounting.Filter{Strategy: "Long", View: accounting.ViewHolding, Status: accounting.StatusHolding}
		if q.Filter != want {
			t.Errorf("Expected %+v, got %+v", want, q.Filter)
		}
		if q.Order.By != accounting.SortName || q.Order.Descending {
			t.Errorf("Expected name asc, got %+v", q.Order)
		}
	})

	invalid := []struct {
		name     string
		strategy string
		view     string
		status   string
		sort     string
		order    string
	}{
		{"view", "", "mine", "", "", ""},
		{"status", "", "", "sold", "", ""},
		{"sort", "", "", "", "price", ""},
		{"order", "", "", "", "name", "up"},
	}
	for _, tt := range invalid {
		t.Run("invalid "+tt.name, func(t *testing.T) {
			if _, err := ParseSummaryQuery(tt.strategy, tt.view, tt.status, tt.sort, tt.order); err == nil {
				t.Errorf("Expected error for invalid %s", tt.name)
			}
		})
	}
}
