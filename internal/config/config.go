// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by REMOTE_BACKEND and STORAGE_BACKEND.
const (
	BackendREST   = "rest"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// Remote API
	RemoteBackend string
	UsersURL      string
	ExpensesURL   string
	HTTPTimeout   time.Duration
	SeedDir       string

	// Local persistence
	StorageBackend   string
	StoragePath      string
	StorageCacheSize int
	StorageCacheTTL  time.Duration

	ToastDuration time.Duration

	// AMQP (optional; empty URL disables activity publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mock API server
	Port            string
	ServerDBPath    string
	ServerRateLimit int

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		RemoteBackend: getEnv("REMOTE_BACKEND", BackendREST),
		UsersURL:      getEnv("USERS_URL", "http://localhost:8081/api/v1/users"),
		ExpensesURL:   getEnv("EXPENSES_URL", "http://localhost:8081/api/v1/expenses"),
		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 0),
		SeedDir:       getEnv("SEED_DIR", "./data"),

		StorageBackend:   getEnv("STORAGE_BACKEND", BackendSQLite),
		StoragePath:      getEnv("STORAGE_PATH", "./data/pocketspend.db"),
		StorageCacheSize: getEnvInt("STORAGE_CACHE_SIZE", 16),
		StorageCacheTTL:  getEnvDuration("STORAGE_CACHE_TTL", 10*time.Minute),

		ToastDuration: getEnvDuration("TOAST_DURATION", 3*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pocketspend"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_activity"),

		Port:            getEnv("PORT", "8081"),
		ServerDBPath:    getEnv("SERVER_DB_PATH", "./data/mockapi.db"),
		ServerRateLimit: getEnvInt("SERVER_RATE_LIMIT", 120),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// SheetsEnabled reports whether a spreadsheet mirror is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains([]string{BackendREST, BackendMemory}, c.RemoteBackend) {
		errors = append(errors, fmt.Sprintf("invalid remote backend '%s': must be one of [%s %s]", c.RemoteBackend, BackendREST, BackendMemory))
	}
	if c.RemoteBackend == BackendREST {
		for name, raw := range map[string]string{"USERS_URL": c.UsersURL, "EXPENSES_URL": c.ExpensesURL} {
			if err := checkHTTPURL(raw); err != nil {
				errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, raw, err))
			}
		}
	}
	if c.HTTPTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must not be negative", c.HTTPTimeout))
	}

	if !slices.Contains([]string{BackendSQLite, BackendMemory}, c.StorageBackend) {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of [%s %s]", c.StorageBackend, BackendSQLite, BackendMemory))
	}
	if c.StorageBackend == BackendSQLite && c.StoragePath == "" {
		errors = append(errors, "storage path cannot be empty when using sqlite storage")
	}
	if c.StorageCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid storage cache size %d: must not be negative", c.StorageCacheSize))
	}
	if c.StorageCacheSize > 0 && c.StorageCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid storage cache TTL %v: must be positive when caching is enabled", c.StorageCacheTTL))
	}

	if c.ToastDuration <= 0 {
		errors = append(errors, fmt.Sprintf("invalid toast duration %v: must be positive", c.ToastDuration))
	}

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

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.ServerRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid server rate limit %d: must be at least 1", c.ServerRateLimit))
	}

	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the sheets mirror")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
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
