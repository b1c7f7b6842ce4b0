// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends
const (
	CacheBackendLRU   = "lru"
	CacheBackendRedis = "redis"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the cache database (always absolute)
	Port     int
	DevMode  bool
	LogLevel string

	MarketData MarketDataConfig
	Cache      CacheConfig
	OpenAI     OpenAIConfig
	Optimizer  OptimizerConfig

	CleanupSchedule string // cron schedule (with seconds) for cache maintenance
}

// MarketDataConfig configures the market data provider
type MarketDataConfig struct {
	BaseURL     string
	Delay       time.Duration // pause between calls of a batch fetch
	YahooSuffix string        // exchange suffix for the Yahoo fallback, empty disables it
}

// CacheConfig configures the memo cache
type CacheConfig struct {
	Backend  string // lru or redis
	Size     int    // LRU entries
	TTL      time.Duration
	RedisURL string
}

// OpenAIConfig configures AI commentary. An empty APIKey disables it.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// OptimizerConfig holds the portfolio simulation defaults
type OptimizerConfig struct {
	RiskFreeRate  float64
	NumPortfolios int
	MaxPortfolios int // upper bound on num_portfolios per request
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("FINLENS_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		MarketData: MarketDataConfig{
			BaseURL:     getEnv("MARKETDATA_BASE_URL", ""),
			Delay:       getEnvAsDuration("MARKETDATA_DELAY", 120*time.Millisecond),
			YahooSuffix: getEnv("YAHOO_SUFFIX", ".VN"),
		},
		Cache: CacheConfig{
			Backend:  getEnv("CACHE_BACKEND", CacheBackendLRU),
			Size:     getEnvAsInt("CACHE_SIZE", 1024),
			TTL:      getEnvAsDuration("CACHE_TTL", time.Hour),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Optimizer: OptimizerConfig{
			RiskFreeRate:  getEnvAsFloat("RISK_FREE_RATE", 0.05),
			NumPortfolios: getEnvAsInt("NUM_PORTFOLIOS", 1000),
			MaxPortfolios: getEnvAsInt("MAX_PORTFOLIOS", 100000),
		},
		CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "0 30 3 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}

	switch c.Cache.Backend {
	case CacheBackendLRU:
		if c.Cache.Size <= 0 {
			return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.Cache.Size)
		}
	case CacheBackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want %s or %s)", c.Cache.Backend, CacheBackendLRU, CacheBackendRedis)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	if c.MarketData.Delay < 0 {
		return fmt.Errorf("MARKETDATA_DELAY must not be negative, got %s", c.MarketData.Delay)
	}
	if c.Optimizer.NumPortfolios <= 0 {
		return fmt.Errorf("NUM_PORTFOLIOS must be positive, got %d", c.Optimizer.NumPortfolios)
	}
	if c.Optimizer.MaxPortfolios < c.Optimizer.NumPortfolios {
		return fmt.Errorf("MAX_PORTFOLIOS (%d) must not be below NUM_PORTFOLIOS (%d)", c.Optimizer.MaxPortfolios, c.Optimizer.NumPortfolios)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
