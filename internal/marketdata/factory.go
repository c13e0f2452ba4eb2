package marketdata

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/yahoo"
)

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg config.MarketDataConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "yahoo":
		client := yahoo.NewFinanceClient(
			yahoo.WithRetry(cfg.RetryCount, time.Second, 8*time.Second),
			yahoo.WithTimeout(cfg.Timeout),
		)
		return NewYahooProvider(client), nil
	case "financego":
		return NewFinanceGoProvider(), nil
	default:
		return nil, fmt.Errorf("unknown market data provider %q", cfg.Provider)
	}
}

// NewCacheFromConfig wraps provider in a cache configured from cfg.
func NewCacheFromConfig(provider Provider, cfg config.MarketDataConfig, log zerolog.Logger) *Cache {
	return NewCache(provider, CacheConfig{
		PriceTTL:    cfg.CacheTTL,
		HistoryTTL:  cfg.HistoryTTL,
		Timeout:     cfg.Timeout,
		Concurrency: cfg.Concurrency,
	}, log)
}
