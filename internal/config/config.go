// Package config loads process settings from an optional YAML file and the
// environment, environment winning.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

var (
	validBackends  = []string{BackendMemory, BackendSQLite}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

type Config struct {
	// HTTP Server
	Port string `yaml:"port"`

	// Backend selection
	DataBackend    string `yaml:"data_backend"`
	SQLiteDBPath   string `yaml:"sqlite_db_path"`
	MemorySeedFile string `yaml:"memory_seed_file"`

	// Auth
	AuthJWTSecret           string        `yaml:"auth_jwt_secret"`
	AuthRequireConfirmation bool          `yaml:"auth_require_confirmation"`
	AuthSessionTTL          time.Duration `yaml:"auth_session_ttl"`
	SessionCheckTimeout     time.Duration `yaml:"session_check_timeout"`
	SeedUserEmail           string        `yaml:"seed_user_email"`
	SeedUserPassword        string        `yaml:"seed_user_password"`

	// AMQP
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Google Sheets roster mirror
	GoogleSpreadsheetID      string `yaml:"google_spreadsheet_id"`
	GoogleSheetName          string `yaml:"google_sheet_name"`
	GoogleServiceAccountFile string `yaml:"google_service_account_file"`
	GoogleOAuthClientFile    string `yaml:"google_oauth_client_file"`
	GoogleOAuthTokenFile     string `yaml:"google_oauth_token_file"`

	// Worker
	SyncInterval time.Duration `yaml:"sync_interval"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

func defaults() *Config {
	return &Config{
		Port:                "8081",
		DataBackend:         BackendMemory,
		SQLiteDBPath:        "./data/gestaosocial.db",
		AuthSessionTTL:      7 * 24 * time.Hour,
		SessionCheckTimeout: 4 * time.Second,
		AMQPExchange:        "gestaosocial",
		AMQPQueue:           "family_changes",
		GoogleSheetName:     "Familias",
		SyncInterval:        5 * time.Minute,
		LogLevel:            "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE if set, then the environment.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.mergeEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.Port = getEnv("PORT", c.Port)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.MemorySeedFile = getEnv("MEMORY_SEED_FILE", c.MemorySeedFile)

	c.AuthJWTSecret = getEnv("AUTH_JWT_SECRET", c.AuthJWTSecret)
	c.AuthRequireConfirmation = getEnvBool("AUTH_REQUIRE_CONFIRMATION", c.AuthRequireConfirmation)
	c.AuthSessionTTL = getEnvDuration("AUTH_SESSION_TTL", c.AuthSessionTTL)
	c.SessionCheckTimeout = getEnvDuration("SESSION_CHECK_TIMEOUT", c.SessionCheckTimeout)
	c.SeedUserEmail = getEnv("SEED_USER_EMAIL", c.SeedUserEmail)
	c.SeedUserPassword = getEnv("SEED_USER_PASSWORD", c.SeedUserPassword)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", c.GoogleSheetName)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.GoogleOAuthClientFile = getEnv("GOOGLE_OAUTH_CLIENT_FILE", c.GoogleOAuthClientFile)
	c.GoogleOAuthTokenFile = getEnv("GOOGLE_OAUTH_TOKEN_FILE", c.GoogleOAuthTokenFile)

	c.SyncInterval = getEnvDuration("SYNC_INTERVAL", c.SyncInterval)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
}

// SheetsEnabled reports whether a roster mirror is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
		if len(c.AuthJWTSecret) < 16 {
			errors = append(errors, "AUTH_JWT_SECRET must be at least 16 characters when using sqlite backend")
		}
	}

	if c.MemorySeedFile != "" && c.DataBackend == BackendMemory {
		if _, err := os.Stat(c.MemorySeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("memory seed file is not readable: %s", c.MemorySeedFile))
		}
	}

	// Validate auth timings
	if c.SessionCheckTimeout <= 0 || c.SessionCheckTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session check timeout %v: must be between 0 and 1 minute", c.SessionCheckTimeout))
	}
	if c.AuthSessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.AuthSessionTTL))
	}

	// Seed user is all or nothing
	if (c.SeedUserEmail == "") != (c.SeedUserPassword == "") {
		errors = append(errors, "SEED_USER_EMAIL and SEED_USER_PASSWORD must be set together")
	} else if c.SeedUserPassword != "" && len(c.SeedUserPassword) < 6 {
		errors = append(errors, "seed user password must be at least 6 characters")
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

	// Validate Google Sheets configuration if a mirror is configured
	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		hasServiceAccount := c.GoogleServiceAccountFile != ""
		hasOAuth := c.GoogleOAuthClientFile != "" && c.GoogleOAuthTokenFile != ""
		if !hasServiceAccount && !hasOAuth {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or both GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_OAUTH_TOKEN_FILE must be provided")
		}
		for _, f := range []string{c.GoogleServiceAccountFile, c.GoogleOAuthClientFile, c.GoogleOAuthTokenFile} {
			if f == "" {
				continue
			}
			if _, err := os.Stat(f); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", f))
			}
		}
	}

	// Validate worker configuration
	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker adds the settings the roster worker cannot run without.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var missing []string
	if c.AMQPURL == "" {
		missing = append(missing, "AMQP_URL")
	}
	if !c.SheetsEnabled() {
		missing = append(missing, "GOOGLE_SPREADSHEET_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("worker configuration incomplete: missing %s", strings.Join(missing, ", "))
	}
	if c.DataBackend != BackendSQLite {
		return fmt.Errorf("worker needs the shared sqlite backend, got '%s'", c.DataBackend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
