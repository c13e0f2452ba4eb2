package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
)

const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"currency": "KRW", "symbol": "005930.KS", "regularMarketPrice": 72500},
      "timestamp": [1704153600, 1704240000, 1704326400],
      "indicators": {"quote": [{
        "open":   [70000, null, 71000],
        "close":  [71000, null, 72000],
        "high":   [71500, null, 72500],
        "low":    [69500, null, 70500],
        "volume": [100, null, 300]
      }]}
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *FinanceClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewFinanceClient(WithBaseURL(server.URL), WithRetry(2, time.Millisecond, 5*time.Millisecond))
}

func TestQueryRange(t *testing.T) {
	t.Run("returns parsed chart", func(t *testing.T) {
		var gotPath, gotRange string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotRange = r.URL.Query().Get("range")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(chartJSON)) //nolint:errcheck // test server
		})

		resp, err := client.QueryRange(context.Background(), "005930.KS", "1y")
		if err != nil {
			t.Fatalf("QueryRange() error = %v", err)
		}
		if gotPath != "/v8/finance/chart/005930.KS" {
			t.Errorf("Unexpected path %s", gotPath)
		}
		if gotRange != "1y" {
			t.Errorf("Expected range 1y, got %s", gotRange)
		}
		if len(resp.Chart.Result) != 1 {
			t.Fatalf("Expected 1 result, got %d", len(resp.Chart.Result))
		}
	})

	t.Run("retries on 429 then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(chartJSON)) //nolint:errcheck // test server
		})

		if _, err := client.QueryRange(context.Background(), "AAPL", "5d"); err != nil {
			t.Fatalf("Expected success after retries, got %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("Expected 3 attempts, got %d", calls.Load())
		}
	})

	t.Run("gives up with ErrRateLimited", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.QueryRange(context.Background(), "AAPL", "5d")
		if !errors.Is(err, apperrors.ErrRateLimited) {
			t.Fatalf("Expected ErrRateLimited, got %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("Expected 1 attempt plus 2 retries, got %d", calls.Load())
		}
	})

	t.Run("unknown symbol", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)) //nolint:errcheck // test server
		})

		_, err := client.QueryRange(context.Background(), "NOPE", "5d")
		if !errors.Is(err, apperrors.ErrSymbolNotFound) {
			t.Errorf("Expected ErrSymbolNotFound, got %v", err)
		}
	})

	t.Run("does not retry transport errors", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			conn, _, err := w.(http.Hijacker).Hijack()
			if err != nil {
				t.Errorf("Hijack() error = %v", err)
				return
			}
			conn.Close()
		})

		if _, err := client.QueryRange(context.Background(), "AAPL", "5d"); err == nil {
			t.Error("Expected error for dropped connection")
		}
		if calls.Load() != 1 {
			t.Errorf("Expected a single attempt, got %d", calls.Load())
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		})

		if _, err := client.QueryRange(context.Background(), "AAPL", "5d"); err == nil {
			t.Error("Expected error for 502")
		}
		if calls.Load() != 1 {
			t.Errorf("Expected a single attempt, got %d", calls.Load())
		}
	})
}

func TestParseChart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartJSON)) //nolint:errcheck // test server
	})
	resp, err := client.QueryRange(context.Background(), "005930.KS", "5d")
	if err != nil {
		t.Fatal(err)
	}

	chart, err := ParseChart(resp)
	if err != nil {
		t.Fatalf("ParseChart() error = %v", err)
	}

	if len(chart.Indicators) != 2 {
		t.Fatalf("Expected null bar to be dropped, got %d bars", len(chart.Indicators))
	}
	if chart.Indicators[1].PriceClose != 72000 || chart.Indicators[1].Volume != 300 {
		t.Errorf("Unexpected last bar %+v", chart.Indicators[1])
	}
	if !chart.Indicators[0].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected first date %s", chart.Indicators[0].Date)
	}

	price, ok := chart.LatestClose()
	if !ok || price != 72500 {
		t.Errorf("Expected market price 72500, got %v %v", price, ok)
	}

	t.Run("falls back to last close", func(t *testing.T) {
		chart.MarketPrice = 0
		price, ok := chart.LatestClose()
		if !ok || price != 72000 {
			t.Errorf("Expected 72000, got %v", price)
		}
	})

	t.Run("empty result", func(t *testing.T) {
		if _, err := ParseChart(Response{}); err == nil {
			t.Error("Expected error for empty response")
		}
	})
}
