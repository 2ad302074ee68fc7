package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Data      DataConfig
	Valuation ValuationConfig
	Provider  ProviderConfig
	CORS      CORSConfig
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

// DataConfig locates the statement files and the durable caches.
type DataConfig struct {
	// StatementDir is scanned for broker activity-statement CSV exports.
	StatementDir string
	// FXCachePath is the durable FX rate cache file.
	FXCachePath string
	// QuoteCachePath is the durable quote cache file.
	QuoteCachePath string
}

// ValuationConfig holds the currency frame of the valuation core.
type ValuationConfig struct {
	// ReportingCurrency is the pivot currency cost basis and net liquidity
	// are expressed in.
	ReportingCurrency string
	// DisplayCurrency is the secondary currency for display conversions.
	DisplayCurrency string
}

// ProviderConfig holds tunables for the external market-data providers.
type ProviderConfig struct {
	// QuoteTTL is how long a fetched quote stays fresh.
	QuoteTTL time.Duration
	// FetchTimeout bounds each outgoing provider request.
	FetchTimeout time.Duration
	// RefreshSchedule is the cron spec for the background quote warm-up.
	RefreshSchedule string
	// SecretKey is an optional base64 fernet key for settings encryption.
	SecretKey string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8000"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/ibfolio.db"),
		},
		Data: DataConfig{
			StatementDir:   getEnv("STATEMENT_DIR", "./data/statements"),
			FXCachePath:    getEnv("FX_CACHE_PATH", "./data/forex_cache.json"),
			QuoteCachePath: getEnv("QUOTE_CACHE_PATH", "./data/market_cache.json"),
		},
		Valuation: ValuationConfig{
			ReportingCurrency: getEnv("REPORTING_CURRENCY", "CZK"),
			DisplayCurrency:   getEnv("DISPLAY_CURRENCY", "USD"),
		},
		Provider: ProviderConfig{
			QuoteTTL:        getDurationEnv("QUOTE_TTL", 5*time.Minute),
			FetchTimeout:    getDurationEnv("PROVIDER_TIMEOUT", 10*time.Second),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 15m"),
			SecretKey:       getEnv("SECRET_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
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

// getDurationEnv parses a duration from the environment, accepting either a
// Go duration string ("5m") or a plain number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
