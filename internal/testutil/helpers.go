package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
)

// TestBackupKey is a valid fernet key for tests.
const TestBackupKey = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="

// NewTestPriceCache wraps provider in a cache with test-friendly settings.
func NewTestPriceCache(t *testing.T, provider marketdata.Provider) *marketdata.Cache {
	t.Helper()

	return marketdata.NewCache(provider, marketdata.CacheConfig{
		PriceTTL:    time.Minute,
		HistoryTTL:  time.Minute,
		Timeout:     time.Second,
		Concurrency: 4,
	}, zerolog.Nop())
}

func NewTestInstrumentService(t *testing.T, db *sql.DB, provider marketdata.Provider) *service.InstrumentService {
	t.Helper()

	return service.NewInstrumentService(
		repository.NewInstrumentRepository(db),
		NewTestPriceCache(t, provider),
		5*time.Second,
		zerolog.Nop(),
	)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB, provider marketdata.Provider) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewInstrumentRepository(db),
		NewTestPriceCache(t, provider),
		5*time.Second,
	)
}

func NewTestLedgerService(t *testing.T, db *sql.DB, key string) *service.LedgerService {
	t.Helper()

	return service.NewLedgerService(repository.NewInstrumentRepository(db), key, zerolog.Nop())
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a unique ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AAPL")
//	// Returns: "AAPL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakeInstrumentName generates an instrument name for testing.
//
// Example usage:
//
//	name := testutil.MakeInstrumentName("AAPL")
//	// Returns: "AAPL Corp XYZ789"
func MakeInstrumentName(base string) string {
	if base == "" {
		base = "Instrument"
	}
	return base + " Corp " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
