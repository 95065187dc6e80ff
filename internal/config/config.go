package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Exchange rate source
	RateAPIURL     string
	RateAPITimeout time.Duration

	// AMQP. Empty URL disables the queue; refreshes then run in-process.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	RefreshSchedule string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/openisave.db"),

		RateAPIURL:     getEnv("RATE_API_URL", "https://api.exchangerate-api.com/v4/latest"),
		RateAPITimeout: getEnvDuration("RATE_API_TIMEOUT", 10*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "openisave"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_rates"),

		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 12h"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite configuration
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate rate source configuration
	if c.RateAPIURL == "" {
		errors = append(errors, "rate API URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.RateAPIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rate API URL '%s': %v", c.RateAPIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid rate API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.RateAPITimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rate API timeout %v: must be at least 1 second", c.RateAPITimeout))
	} else if c.RateAPITimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate API timeout %v: must be at most 1 minute", c.RateAPITimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate worker configuration
	if c.RefreshSchedule == "" {
		errors = append(errors, "refresh schedule cannot be empty")
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
