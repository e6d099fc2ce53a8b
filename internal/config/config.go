// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bridge-flow-lab/internal/domain"
)

// Config holds all configuration for the service.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	HomeChain domain.Chain
	UseMemory bool

	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig

	CacheTTL     time.Duration
	LiveInterval time.Duration
}

// PostgresConfig holds one bridge indexer DSN per network.
type PostgresConfig struct {
	MainnetDSN string
	TestnetDSN string
}

// DSN returns the DSN for a network, empty if not configured.
func (c PostgresConfig) DSN(n domain.Network) string {
	switch n {
	case domain.NetworkMainnet:
		return c.MainnetDSN
	case domain.NetworkTestnet:
		return c.TestnetDSN
	}
	return ""
}

// ClickHouseConfig holds the snapshot store DSN. Empty disables snapshots.
type ClickHouseConfig struct {
	DSN string
}

// RedisConfig holds response cache settings. Empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig holds per-client API rate limits.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads .env (when present) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		HomeChain: domain.Chain(strings.ToUpper(getEnv("HOME_CHAIN", string(domain.ChainSui)))),
		UseMemory: getEnvAsBool("USE_MEMORY", false),
		Postgres: PostgresConfig{
			MainnetDSN: getEnv("POSTGRES_MAINNET_DSN", ""),
			TestnetDSN: getEnv("POSTGRES_TESTNET_DSN", ""),
		},
		ClickHouse: ClickHouseConfig{
			DSN: getEnv("CLICKHOUSE_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
	}

	var err error
	if cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.LiveInterval, err = getEnvAsDuration("LIVE_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and required settings.
func (c *Config) Validate() error {
	if !c.HomeChain.Valid() {
		return fmt.Errorf("HOME_CHAIN: unknown chain %q", c.HomeChain)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.LiveInterval <= 0 {
		return fmt.Errorf("LIVE_INTERVAL must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	if !c.UseMemory && c.Postgres.MainnetDSN == "" && c.Postgres.TestnetDSN == "" {
		return fmt.Errorf("no POSTGRES_*_DSN configured; set USE_MEMORY=true for demo data")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
