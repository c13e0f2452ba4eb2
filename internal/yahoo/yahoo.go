package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
)

// DefaultBaseURL is the Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// FinanceClient provides methods for fetching daily price charts from Yahoo Finance.
// Requests answered with HTTP 429 are retried with exponential backoff before
// the client gives up with apperrors.ErrRateLimited.
type FinanceClient struct {
	client *resty.Client
}

// Option configures a FinanceClient.
type Option func(*resty.Client)

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(url string) Option {
	return func(c *resty.Client) {
		c.SetBaseURL(url)
	}
}

// WithRetry sets how often a rate-limited request is retried and the bounds
// of the backoff between attempts.
func WithRetry(count int, wait, maxWait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(maxWait)
	}
}

// WithTimeout bounds a single HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		c.SetTimeout(d)
	}
}

// NewFinanceClient creates a Yahoo Finance client. Without options it retries
// three times, waiting between one and eight seconds.
func NewFinanceClient(opts ...Option) *FinanceClient {
	client := resty.New().
		SetBaseURL(DefaultBaseURL).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(8 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() == http.StatusTooManyRequests
		})

	for _, opt := range opts {
		opt(client)
	}

	return &FinanceClient{client: client}
}

// QueryRange fetches daily bars for symbol over a Yahoo range such as "5d" or "1y".
func (c *FinanceClient) QueryRange(ctx context.Context, symbol, rangeParam string) (Response, error) {
	return c.queryChart(ctx, symbol, map[string]string{
		"interval": "1d",
		"range":    rangeParam,
	})
}

func (c *FinanceClient) queryChart(ctx context.Context, symbol string, params map[string]string) (Response, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(params).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return Response{}, fmt.Errorf("yahoo request for %s failed: %w", symbol, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return Response{}, fmt.Errorf("yahoo %s: %w", symbol, apperrors.ErrRateLimited)
	case http.StatusNotFound:
		return Response{}, fmt.Errorf("yahoo %s: %w", symbol, apperrors.ErrSymbolNotFound)
	default:
		return Response{}, fmt.Errorf("yahoo %s: unexpected status %d", symbol, resp.StatusCode())
	}

	var response Response
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return Response{}, fmt.Errorf("failed to decode yahoo response: %w", err)
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s", response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("no results returned for symbol %s: %w", symbol, apperrors.ErrSymbolNotFound)
	}

	return response, nil
}

// ParseChart converts a raw chart response into a PriceChart. Bars without a
// close price are dropped; missing open, high or low values fall back to the close.
func ParseChart(yahooResult Response) (PriceChart, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("no chart result")
	}
	result := yahooResult.Chart.Result[0]

	chart := PriceChart{
		Symbol:           result.Meta.Symbol,
		Currency:         result.Meta.Currency,
		ExchangeName:     result.Meta.ExchangeName,
		FullExchangeName: result.Meta.FullExchangeName,
		LongName:         result.Meta.LongName,
		Shortname:        result.Meta.Shortname,
		Indicators:       []Indicators{},
	}
	if result.Meta.RegularMarketPrice != nil {
		chart.MarketPrice = *result.Meta.RegularMarketPrice
	}

	if len(result.Timestamp) == 0 {
		return chart, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return PriceChart{}, fmt.Errorf("no quote series returned")
	}
	q := result.Indicators.Quote[0]
	if len(q.Close) != len(result.Timestamp) {
		return PriceChart{}, fmt.Errorf("mismatched data lengths")
	}

	for i, ts := range result.Timestamp {
		closePrice := q.Close[i]
		if closePrice == nil {
			continue
		}
		ind := Indicators{
			Date:       time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			PriceClose: *closePrice,
			PriceOpen:  valueAt(q.Open, i, *closePrice),
			PriceHigh:  valueAt(q.High, i, *closePrice),
			PriceLow:   valueAt(q.Low, i, *closePrice),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			ind.Volume = *q.Volume[i]
		}
		chart.Indicators = append(chart.Indicators, ind)
	}

	return chart, nil
}

// LatestClose returns the most recent close in the chart, preferring the
// regular market price when Yahoo reports one.
func (c PriceChart) LatestClose() (float64, bool) {
	if c.MarketPrice > 0 {
		return c.MarketPrice, true
	}
	if len(c.Indicators) == 0 {
		return 0, false
	}
	return c.Indicators[len(c.Indicators)-1].PriceClose, true
}

func valueAt(series []*float64, i int, fallback float64) float64 {
	if i < len(series) && series[i] != nil {
		return *series[i]
	}
	return fallback
}
