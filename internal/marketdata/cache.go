package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CacheConfig controls expiry and fan-out of a Cache.
type CacheConfig struct {
	PriceTTL    time.Duration // latest price lifetime
	HistoryTTL  time.Duration // history lifetime
	Timeout     time.Duration // per provider call, 0 means none
	Concurrency int           // parallel fetches in Prices and Refresh
}

type priceEntry struct {
	price   decimal.Decimal
	expires time.Time
}

type historyEntry struct {
	bars    []Bar
	expires time.Time
}

// Cache is the degrading front of a Provider. Successful lookups are kept
// for their TTL; failures are logged, not cached, and reported as "no price".
// Concurrent lookups of the same key share one provider call.
type Cache struct {
	provider Provider
	cfg      CacheConfig
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	prices  map[string]priceEntry
	history map[string]historyEntry

	group singleflight.Group
}

// NewCache wraps provider.
func NewCache(provider Provider, cfg CacheConfig, log zerolog.Logger) *Cache {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Cache{
		provider: provider,
		cfg:      cfg,
		log:      log.With().Str("component", "pricecache").Logger(),
		now:      time.Now,
		prices:   make(map[string]priceEntry),
		history:  make(map[string]historyEntry),
	}
}

// SetClock replaces the cache's time source.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// Price returns the latest price of symbol. ok is false when no price could
// be obtained.
func (c *Cache) Price(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	c.mu.Lock()
	entry, found := c.prices[symbol]
	c.mu.Unlock()
	if found && c.now().Before(entry.expires) {
		return entry.price, true
	}

	return c.fetchPrice(ctx, symbol)
}

func (c *Cache) fetchPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	v, err := c.share(ctx, "price:"+symbol, func(callCtx context.Context) (any, error) {
		price, err := c.provider.LatestPrice(callCtx, symbol)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.prices[symbol] = priceEntry{price: price, expires: c.now().Add(c.cfg.PriceTTL)}
		c.mu.Unlock()
		return price, nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("price unavailable")
		return decimal.Zero, false
	}
	return v.(decimal.Decimal), true
}

// Prices looks up every symbol, at most Concurrency at a time. Symbols
// without a price are absent from the result.
func (c *Cache) Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(symbols))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)
	for _, symbol := range symbols {
		g.Go(func() error {
			if price, ok := c.Price(ctx, symbol); ok {
				mu.Lock()
				out[symbol] = price
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Refresh fetches fresh prices for symbols regardless of expiry and returns
// how many succeeded.
func (c *Cache) Refresh(ctx context.Context, symbols []string) int {
	var (
		mu        sync.Mutex
		refreshed int
	)

	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)
	for _, symbol := range symbols {
		g.Go(func() error {
			if _, ok := c.fetchPrice(ctx, symbol); ok {
				mu.Lock()
				refreshed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return refreshed
}

// History returns daily bars for symbol over period, or an empty slice when
// the provider fails.
func (c *Cache) History(ctx context.Context, symbol string, period Period) []Bar {
	key := symbol + "|" + string(period)

	c.mu.Lock()
	entry, found := c.history[key]
	c.mu.Unlock()
	if found && c.now().Before(entry.expires) {
		return entry.bars
	}

	v, err := c.share(ctx, "history:"+key, func(callCtx context.Context) (any, error) {
		bars, err := c.provider.History(callCtx, symbol, period)
		if err != nil {
			return nil, err
		}
		if bars == nil {
			bars = []Bar{}
		}

		c.mu.Lock()
		c.history[key] = historyEntry{bars: bars, expires: c.now().Add(c.cfg.HistoryTTL)}
		c.mu.Unlock()
		return bars, nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Str("period", string(period)).Msg("history unavailable")
		return []Bar{}
	}
	return v.([]Bar)
}

// Invalidate drops every cached entry of symbol.
func (c *Cache) Invalidate(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.prices, symbol)
	for p := range ValidPeriods {
		delete(c.history, symbol+"|"+string(p))
	}
}

// share runs fn once per key for all concurrent callers. A caller whose ctx
// ends stops waiting; the shared call carries on under its own timeout and
// still fills the cache.
func (c *Cache) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := c.callContext(ctx)
		defer cancel()
		return fn(callCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// callContext detaches the shared provider call from the first caller's
// cancellation, since other callers may be waiting on the same result.
func (c *Cache) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(base, c.cfg.Timeout)
	}
	return context.WithCancel(base)
}
