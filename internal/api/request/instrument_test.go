package request

import "testing"

func TestParseSellPreviewQuery(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		quantity  string
		wantPrice string
		wantQty   int64
		wantErr   bool
	}{
		{name: "quantity only", quantity: "5", wantPrice: "0", wantQty: 5},
		{name: "price and quantity", price: "72500.5", quantity: " 10 ", wantPrice: "72500.5", wantQty: 10},
		{name: "missing quantity", price: "10", wantErr: true},
		{name: "zero quantity", quantity: "0", wantErr: true},
		{name: "fractional quantity", quantity: "1.5", wantErr: true},
		{name: "negative price", price: "-1", quantity: "1", wantErr: true},
		{name: "garbage price", price: "abc", quantity: "1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseSellPreviewQuery(tt.price, tt.quantity)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %+v", q)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Price.String() != tt.wantPrice || q.Quantity != tt.wantQty {
				t.Errorf("Expected %s x %d, got %s x %d", tt.wantPrice, tt.wantQty, q.Price, q.Quantity)
			}
		})
	}
}
