package marketdata_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/marketdata"
)

type fakeProvider struct {
	mu      sync.Mutex
	prices  map[string]decimal.Decimal
	bars    []marketdata.Bar
	err     error
	delay   time.Duration
	release chan struct{}
	calls   atomic.Int32
	history atomic.Int32
}

func (f *fakeProvider) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return decimal.Zero, f.err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w", symbol, apperrors.ErrSymbolNotFound)
	}
	return p, nil
}

func (f *fakeProvider) History(ctx context.Context, symbol string, period marketdata.Period) ([]marketdata.Bar, error) {
	f.history.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeProvider) setPrice(symbol, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = decimal.RequireFromString(price)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCache(t *testing.T, p marketdata.Provider) (*marketdata.Cache, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := marketdata.NewCache(p, marketdata.CacheConfig{
		PriceTTL:    5 * time.Minute,
		HistoryTTL:  time.Hour,
		Timeout:     time.Second,
		Concurrency: 2,
	}, zerolog.Nop())
	c.SetClock(clk.Now)
	return c, clk
}

func TestCache_PriceIsCachedUntilExpiry(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{}}
	p.setPrice("AAPL", "190.5")
	c, clk := newCache(t, p)
	ctx := context.Background()

	price, ok := c.Price(ctx, "AAPL")
	require.True(t, ok)
	assert.Equal(t, "190.5", price.String())

	p.setPrice("AAPL", "200")
	clk.Advance(4 * time.Minute)
	price, _ = c.Price(ctx, "AAPL")
	assert.Equal(t, "190.5", price.String(), "served from cache")
	assert.EqualValues(t, 1, p.calls.Load())

	clk.Advance(2 * time.Minute)
	price, _ = c.Price(ctx, "AAPL")
	assert.Equal(t, "200", price.String(), "refetched after ttl")
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestCache_RateLimitedProviderYieldsNoPrice(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{}, err: fmt.Errorf("quote: %w", apperrors.ErrRateLimited)}
	c, _ := newCache(t, p)

	_, ok := c.Price(context.Background(), "AAPL")
	assert.False(t, ok)

	// failures are not cached
	_, ok = c.Price(context.Background(), "AAPL")
	assert.False(t, ok)
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestCache_PricesSkipsFailures(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{}}
	p.setPrice("AAPL", "190")
	p.setPrice("MSFT", "410")
	c, _ := newCache(t, p)

	got := c.Prices(context.Background(), []string{"AAPL", "MSFT", "NOPE"})

	assert.Len(t, got, 2)
	assert.Equal(t, "190", got["AAPL"].String())
	assert.Equal(t, "410", got["MSFT"].String())
	assert.NotContains(t, got, "NOPE")
}

func TestCache_ConcurrentCallersShareOneFetch(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{}, delay: 50 * time.Millisecond}
	p.setPrice("AAPL", "190")
	c, _ := newCache(t, p)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := c.Price(context.Background(), "AAPL")
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, p.calls.Load())
}

func TestCache_CancelledCallerStopsWaiting(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{prices: map[string]decimal.Decimal{}, release: release}
	p.setPrice("AAPL", "190")
	c, _ := newCache(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := c.Price(ctx, "AAPL")
		done <- ok
	}()

	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Price did not return after its context was cancelled")
	}

	// the shared call finishes on its own and fills the cache
	close(release)
	assert.Eventually(t, func() bool {
		price, ok := c.Price(context.Background(), "AAPL")
		return ok && price.String() == "190"
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestCache_RefreshBypassesTTL(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{}}
	p.setPrice("AAPL", "190")
	c, _ := newCache(t, p)
	ctx := context.Background()

	c.Price(ctx, "AAPL")
	p.setPrice("AAPL", "195")

	assert.Equal(t, 1, c.Refresh(ctx, []string{"AAPL", "NOPE"}))
	price, _ := c.Price(ctx, "AAPL")
	assert.Equal(t, "195", price.String())
}

func TestCache_History(t *testing.T) {
	bars := []marketdata.Bar{
		{Date: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(100)},
		{Date: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(101)},
	}
	p := &fakeProvider{prices: map[string]decimal.Decimal{}, bars: bars}
	c, clk := newCache(t, p)
	ctx := context.Background()

	assert.Len(t, c.History(ctx, "AAPL", marketdata.Period1Year), 2)
	assert.Len(t, c.History(ctx, "AAPL", marketdata.Period1Year), 2)
	assert.EqualValues(t, 1, p.history.Load())

	c.History(ctx, "AAPL", marketdata.Period1Month)
	assert.EqualValues(t, 2, p.history.Load(), "periods are cached separately")

	clk.Advance(61 * time.Minute)
	c.History(ctx, "AAPL", marketdata.Period1Year)
	assert.EqualValues(t, 3, p.history.Load())

	c.Invalidate("AAPL")
	c.History(ctx, "AAPL", marketdata.Period1Month)
	assert.EqualValues(t, 4, p.history.Load())
}

func TestCache_HistoryFailureIsEmpty(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{}, err: apperrors.ErrRateLimited}
	c, _ := newCache(t, p)

	bars := c.History(context.Background(), "AAPL", marketdata.Period6Months)
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestParsePeriod(t *testing.T) {
	p, err := marketdata.ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, marketdata.Period1Year, p)

	p, err = marketdata.ParsePeriod(" 6MO ")
	require.NoError(t, err)
	assert.Equal(t, marketdata.Period6Months, p)

	_, err = marketdata.ParsePeriod("10y")
	assert.Error(t, err)

	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2019, 3, 31, 0, 0, 0, 0, time.UTC), marketdata.Period5Years.Start(end))
}
