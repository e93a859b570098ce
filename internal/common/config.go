// Package common provides shared utilities for the portfolio tracker
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the tracker
type Config struct {
	Environment string        `toml:"environment"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Market      MarketConfig  `toml:"market"`
	Logging     LoggingConfig `toml:"logging"`
}

// StorageConfig holds the embedded store path.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo YahooConfig `toml:"yahoo"`
	FMP   FMPConfig   `toml:"fmp"`
}

// YahooConfig holds Yahoo Finance client configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// FMPConfig holds Financial Modeling Prep client configuration
type FMPConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	DailyQuota int    `toml:"daily_quota"`
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FMPConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// MarketConfig holds market-clock and freshness policy configuration.
type MarketConfig struct {
	Timezone         string `toml:"timezone"`          // IANA name, e.g. "America/New_York"
	OpenTime         string `toml:"open_time"`         // "09:30"
	CloseTime        string `toml:"close_time"`        // "16:00"
	QuoteTTLOpen     string `toml:"quote_ttl_open"`    // staleness window during market hours
	QuoteTTLClosed   string `toml:"quote_ttl_closed"`  // staleness window outside market hours
	LookbackDays     int    `toml:"lookback_days"`     // historical backfill window
	DividendMaxAge   string `toml:"dividend_max_age"`  // refetch dividends older than this
	QuoteDelay       string `toml:"quote_delay"`       // inter-symbol delay for quote sweeps
	HistoryDelay     string `toml:"history_delay"`     // inter-symbol delay for history/dividend batches
	SweepInterval    string `toml:"sweep_interval"`    // background freshness sweep interval
	DividendProvider string `toml:"dividend_provider"` // "yahoo" or "fmp"
	DividendFallback string `toml:"dividend_fallback"` // tried when the primary returns nothing
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// GetQuoteTTLOpen returns the in-hours quote staleness window.
func (c *MarketConfig) GetQuoteTTLOpen() time.Duration {
	return parseDurationOr(c.QuoteTTLOpen, 15*time.Minute)
}

// GetQuoteTTLClosed returns the out-of-hours quote staleness window.
func (c *MarketConfig) GetQuoteTTLClosed() time.Duration {
	return parseDurationOr(c.QuoteTTLClosed, 30*time.Minute)
}

// GetDividendMaxAge returns the dividend refetch age.
func (c *MarketConfig) GetDividendMaxAge() time.Duration {
	return parseDurationOr(c.DividendMaxAge, 7*24*time.Hour)
}

// GetQuoteDelay returns the inter-symbol delay for quote sweeps.
func (c *MarketConfig) GetQuoteDelay() time.Duration {
	return parseDurationOr(c.QuoteDelay, 250*time.Millisecond)
}

// GetHistoryDelay returns the inter-symbol delay for history/dividend batches.
func (c *MarketConfig) GetHistoryDelay() time.Duration {
	return parseDurationOr(c.HistoryDelay, 500*time.Millisecond)
}

// GetSweepInterval returns the background sweep interval.
func (c *MarketConfig) GetSweepInterval() time.Duration {
	return parseDurationOr(c.SweepInterval, 15*time.Minute)
}

// GetLookbackDays returns the historical backfill window in days.
func (c *MarketConfig) GetLookbackDays() int {
	if c.LookbackDays <= 0 {
		return 365
	}
	return c.LookbackDays
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Path: "data/folio",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 4,
				Timeout:   "15s",
			},
			FMP: FMPConfig{
				BaseURL:    "https://financialmodelingprep.com/api/v3",
				DailyQuota: 250,
				RateLimit:  4,
				Timeout:    "15s",
			},
		},
		Market: MarketConfig{
			Timezone:         "America/New_York",
			OpenTime:         "09:30",
			CloseTime:        "16:00",
			QuoteTTLOpen:     "15m",
			QuoteTTLClosed:   "30m",
			LookbackDays:     365,
			DividendMaxAge:   "168h",
			QuoteDelay:       "250ms",
			HistoryDelay:     "500ms",
			SweepInterval:    "15m",
			DividendProvider: "yahoo",
			DividendFallback: "fmp",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FOLIO_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if key := os.Getenv("FOLIO_FMP_API_KEY"); key != "" {
		config.Clients.FMP.APIKey = key
	}
	if key := os.Getenv("FMP_API_KEY"); key != "" && config.Clients.FMP.APIKey == "" {
		config.Clients.FMP.APIKey = key
	}

	if quota := os.Getenv("FOLIO_FMP_DAILY_QUOTA"); quota != "" {
		if q, err := strconv.Atoi(quota); err == nil {
			config.Clients.FMP.DailyQuota = q
		}
	}

	if tz := os.Getenv("FOLIO_MARKET_TIMEZONE"); tz != "" {
		config.Market.Timezone = tz
	}

	if days := os.Getenv("FOLIO_LOOKBACK_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Market.LookbackDays = d
		}
	}

	if p := os.Getenv("FOLIO_DIVIDEND_PROVIDER"); p != "" {
		config.Market.DividendProvider = strings.ToLower(p)
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
