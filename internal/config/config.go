package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	Log        LogConfig
	MarketData MarketDataConfig
	Ledger     LedgerConfig
	Backup     BackupConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// MarketDataConfig controls price lookups and caching.
type MarketDataConfig struct {
	Provider        string // yahoo or financego
	CacheTTL        time.Duration
	HistoryTTL      time.Duration
	Timeout         time.Duration
	RetryCount      int
	Concurrency     int
	RefreshSchedule string // cron spec, empty disables the warm-up job
}

// LedgerConfig controls ledger store access.
type LedgerConfig struct {
	Timeout time.Duration
}

// BackupConfig holds the fernet key used for ledger export and import.
type BackupConfig struct {
	Key string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/holdings.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		MarketData: MarketDataConfig{
			Provider:        strings.ToLower(getEnv("MARKET_DATA_PROVIDER", "yahoo")),
			HistoryTTL:      time.Hour,
			RefreshSchedule: os.Getenv("PRICE_REFRESH_SCHEDULE"),
		},
		Backup: BackupConfig{
			Key: os.Getenv("BACKUP_KEY"),
		},
	}

	if _, ok := os.LookupEnv("PRICE_REFRESH_SCHEDULE"); !ok {
		config.MarketData.RefreshSchedule = "@every 15m"
	}

	var err error
	if config.Log.Pretty, err = getBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	if config.MarketData.CacheTTL, err = getDuration("PRICE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if config.MarketData.Timeout, err = getDuration("PRICE_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if config.Ledger.Timeout, err = getDuration("LEDGER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.MarketData.RetryCount, err = getInt("MARKET_RETRY_COUNT", 3); err != nil {
		return nil, err
	}
	if config.MarketData.Concurrency, err = getInt("PRICE_FETCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if config.MarketData.Concurrency < 1 {
		return nil, fmt.Errorf("PRICE_FETCH_CONCURRENCY must be at least 1, got %d", config.MarketData.Concurrency)
	}

	switch config.MarketData.Provider {
	case "yahoo", "financego":
	default:
		return nil, fmt.Errorf("unknown MARKET_DATA_PROVIDER %q", config.MarketData.Provider)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
