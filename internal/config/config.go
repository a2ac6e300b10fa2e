package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName           = "ScanPay"
	defaultAppEnv            = "development"
	defaultLogLevel          = "info"
	defaultCurrency          = "XAF"
	defaultPollInterval      = 2 * time.Second
	defaultCountdownTick     = time.Second
	defaultSettleDelay       = 1200 * time.Millisecond
	defaultProvisionalExpiry = 5 * time.Minute
	defaultHTTPTimeout       = 30 * time.Second
	defaultMinAmountMinor    = 100
	pollSecondsEnvVar        = "POLL_INTERVAL_SECONDS"
	pollDurationEnvVar       = "POLL_INTERVAL"
	settleMillisEnvVar       = "SETTLE_DELAY_MS"
	settleDurationEnvVar     = "SETTLE_DELAY"
)

// Config captures terminal runtime configuration loaded from environment variables.
type Config struct {
	AppName           string
	AppEnv            string
	LogLevel          string
	TerminalID        string
	BackendURL        string
	DatabaseURL       string
	RedisURL          string
	Currency          string
	Description       string
	PollInterval      time.Duration
	CountdownTick     time.Duration
	SettleDelay       time.Duration
	ProvisionalExpiry time.Duration
	HTTPTimeout       time.Duration
	MinAmountMinor    int64
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		TerminalID:        getEnv("TERMINAL_ID", "terminal-1"),
		BackendURL:        strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		Currency:          getEnv("CURRENCY", defaultCurrency),
		Description:       getEnv("PAYMENT_DESCRIPTION", "In-store purchase"),
		PollInterval:      defaultPollInterval,
		CountdownTick:     defaultCountdownTick,
		SettleDelay:       defaultSettleDelay,
		ProvisionalExpiry: defaultProvisionalExpiry,
		HTTPTimeout:       defaultHTTPTimeout,
		MinAmountMinor:    defaultMinAmountMinor,
	}

	if v := os.Getenv(pollSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", pollSecondsEnvVar, err)
		}
		cfg.PollInterval = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(pollDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", pollDurationEnvVar, err)
		}
		cfg.PollInterval = d
	}

	if v := os.Getenv(settleMillisEnvVar); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", settleMillisEnvVar, err)
		}
		cfg.SettleDelay = time.Duration(ms) * time.Millisecond
	} else if v := os.Getenv(settleDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", settleDurationEnvVar, err)
		}
		cfg.SettleDelay = d
	}

	if v := os.Getenv("COUNTDOWN_TICK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COUNTDOWN_TICK: %w", err)
		}
		cfg.CountdownTick = d
	}

	if v := os.Getenv("PROVISIONAL_EXPIRY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PROVISIONAL_EXPIRY: %w", err)
		}
		cfg.ProvisionalExpiry = d
	}

	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}

	if v := os.Getenv("MIN_AMOUNT_MINOR"); v != "" {
		minor, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MIN_AMOUNT_MINOR: %w", err)
		}
		cfg.MinAmountMinor = minor
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL must be set")
	}

	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("poll interval must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
