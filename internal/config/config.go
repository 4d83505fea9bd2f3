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

	// Blob storage
	BlobBackend   string
	DataDirectory string
	SQLiteDBPath  string

	// Remote analysis API
	APIBaseURL string

	// Analysis backend selection
	AnalysisBackend string
	GeminiModel     string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	BackupDir    string
	SyncInterval time.Duration

	// Google Sheets export (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		BlobBackend:   getEnv("BLOB_BACKEND", "file"),
		DataDirectory: getEnv("DATA_DIR", "./data"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/paydash.db"),

		APIBaseURL: getEnv("API_BASE_URL", ""),

		AnalysisBackend: getEnv("ANALYSIS_BACKEND", "api"),
		GeminiModel:     getEnv("GEMINI_MODEL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "paydash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "data_changes"),

		BackupDir:    getEnv("BACKUP_DIR", "./backups"),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),
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

	// Validate blob backend
	validBackends := []string{"file", "memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.BlobBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid blob backend '%s': must be one of %v", c.BlobBackend, validBackends))
	}

	// Validate file backend configuration
	if c.BlobBackend == "file" {
		if c.DataDirectory == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		} else if _, err := os.Stat(c.DataDirectory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.DataDirectory, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create data directory '%s': %v", c.DataDirectory, err))
			}
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.BlobBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate analysis backend
	validAnalysis := []string{"api", "gemini"}
	isValidAnalysis := false
	for _, backend := range validAnalysis {
		if c.AnalysisBackend == backend {
			isValidAnalysis = true
			break
		}
	}
	if !isValidAnalysis {
		errors = append(errors, fmt.Sprintf("invalid analysis backend '%s': must be one of %v", c.AnalysisBackend, validAnalysis))
	}

	// The remote backend needs a base URL to talk to
	if c.AnalysisBackend == "api" {
		if c.APIBaseURL == "" {
			errors = append(errors, "API base URL is required when using the api analysis backend")
		} else if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
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
	if c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty")
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SheetsExportEnabled reports whether a spreadsheet is configured for the
// worker's month-summary export.
func (c *Config) SheetsExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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
