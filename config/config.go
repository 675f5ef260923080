package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	HTTPAddr string

	// Ledger configuration
	StartingBalance      int64 // Balance seeded on lazily created accounts
	PartialRefundPercent int64 // Percentage of stake returned on partial refunds

	// Prediction window configuration
	PredictionWindowLead time.Duration // Wagering closes this long before the event starts
	WindowFailOpen       bool          // Treat missing/unparseable start times as an open window

	// Concurrency configuration
	RetryAttempts int // Bounded retries on transient transaction conflicts

	// Results processing
	ResultsPollInterval time.Duration // How often the worker re-checks active events

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// Best effort; production supplies real env vars
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    os.Getenv("HTTP_ADDR"),

		StartingBalance:      1000,
		PartialRefundPercent: 50,
		PredictionWindowLead: 10 * time.Minute,
		WindowFailOpen:       true,
		RetryAttempts:        3,
		ResultsPollInterval:  5 * time.Minute,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.HTTPAddr == "" {
		config.HTTPAddr = ":8080"
	}

	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if pct := os.Getenv("PARTIAL_REFUND_PERCENT"); pct != "" {
		if parsed, err := strconv.ParseInt(pct, 10, 64); err == nil && parsed > 0 && parsed <= 100 {
			config.PartialRefundPercent = parsed
		}
	}
	if minutes := os.Getenv("PREDICTION_WINDOW_MINUTES"); minutes != "" {
		if parsed, err := strconv.Atoi(minutes); err == nil && parsed >= 0 {
			config.PredictionWindowLead = time.Duration(parsed) * time.Minute
		}
	}
	if failOpen := os.Getenv("WINDOW_FAIL_OPEN"); failOpen != "" {
		config.WindowFailOpen = failOpen == "true"
	}
	if attempts := os.Getenv("RETRY_ATTEMPTS"); attempts != "" {
		if parsed, err := strconv.Atoi(attempts); err == nil && parsed > 0 {
			config.RetryAttempts = parsed
		}
	}
	if interval := os.Getenv("RESULTS_POLL_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil && parsed > 0 {
			config.ResultsPollInterval = parsed
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
