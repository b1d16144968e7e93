// Package config loads fintrack settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP server
	Port string

	// Database
	DBPath string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration
	// JobToken guards POST /jobs/close-month. Empty disables it.
	JobToken string

	// AMQP events. Publishing is off when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Prices
	QuoteAPIURL             string
	FXRatesURL              string
	PriceCacheTTL           time.Duration
	PriceCacheSize          int
	PriceRefreshConcurrency int

	// Worker schedules (cron syntax or @descriptors)
	CloseMonthSchedule   string
	PriceRefreshSchedule string
}

const defaultFXRatesURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"

func Load() *Config {
	return &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "./data/fintrack.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),
		JobToken:  getEnv("JOB_TOKEN", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "fintrack.events"),

		QuoteAPIURL:             getEnv("QUOTE_API_URL", ""),
		FXRatesURL:              getEnv("FX_RATES_URL", defaultFXRatesURL),
		PriceCacheTTL:           getEnvDuration("PRICE_CACHE_TTL", 15*time.Minute),
		PriceCacheSize:          getEnvInt("PRICE_CACHE_SIZE", 512),
		PriceRefreshConcurrency: getEnvInt("PRICE_REFRESH_CONCURRENCY", 4),

		CloseMonthSchedule:   getEnv("CLOSE_MONTH_SCHEDULE", "5 0 1 * *"),
		PriceRefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", "@every 1h"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	for name, raw := range map[string]string{"quote API URL": c.QuoteAPIURL, "FX rates URL": c.FXRatesURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an http(s) URL", name, raw))
		}
	}

	if c.PriceCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid price cache TTL %v: must not be negative", c.PriceCacheTTL))
	}
	if c.PriceCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid price cache size %d: must be at least 1", c.PriceCacheSize))
	}
	if c.PriceRefreshConcurrency < 1 || c.PriceRefreshConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid price refresh concurrency %d: must be between 1 and 64", c.PriceRefreshConcurrency))
	}

	for name, spec := range map[string]string{
		"close-month schedule":   c.CloseMonthSchedule,
		"price refresh schedule": c.PriceRefreshSchedule,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, spec, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// PricesEnabled reports whether a quote source is configured.
func (c *Config) PricesEnabled() bool {
	return c.QuoteAPIURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
