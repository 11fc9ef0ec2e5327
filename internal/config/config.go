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
	// Input
	InputDir string

	// Processed data
	LayoutDir     string
	StructuredDir string
	CSVPath       string
	ReportsDir    string

	// Database
	SQLiteDBPath string

	// Layout extraction
	ExtractorBackend string
	DoclingURL       string
	DoclingTimeout   time.Duration

	// Field extraction (LLM)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Pipeline
	IngestConcurrency int

	// AMQP (optional; empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export worker
	ExportInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		InputDir: getEnv("INPUT_DIR", "./data/raw"),

		LayoutDir:     getEnv("LAYOUT_DIR", "./data/processed/layout"),
		StructuredDir: getEnv("STRUCTURED_DIR", "./data/processed/structured"),
		CSVPath:       getEnv("CSV_PATH", "./data/processed/database.csv"),
		ReportsDir:    getEnv("REPORTS_DIR", "./reports"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/billfold.db"),

		ExtractorBackend: getEnv("EXTRACTOR_BACKEND", "docling"),
		DoclingURL:       getEnv("DOCLING_URL", "http://localhost:5001"),
		DoclingTimeout:   getEnvDuration("DOCLING_TIMEOUT", 2*time.Minute),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-2024-08-06"),
		OpenAITimeout: getEnvDuration("OPENAI_TIMEOUT", 90*time.Second),

		IngestConcurrency: getEnvInt("INGEST_CONCURRENCY", 2),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "billfold"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "bill_indexed"),

		ExportInterval: getEnvDuration("EXPORT_INTERVAL", 30*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate extractor backend
	validBackends := []string{"docling", "vision"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.ExtractorBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid extractor backend '%s': must be one of %v", c.ExtractorBackend, validBackends))
	}

	// Validate docling URL if backend is docling
	if c.ExtractorBackend == "docling" {
		if parsedURL, err := url.Parse(c.DoclingURL); err != nil || parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid docling URL '%s'", c.DoclingURL))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid docling URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	// Validate OpenAI configuration
	if c.OpenAIAPIKey == "" {
		errors = append(errors, "OPENAI_API_KEY must be set")
	}
	if c.OpenAIModel == "" {
		errors = append(errors, "OpenAI model cannot be empty")
	}
	if parsedURL, err := url.Parse(c.OpenAIBaseURL); err != nil || parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid OpenAI base URL '%s'", c.OpenAIBaseURL))
	}

	// Validate SQLite path
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
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

	// Validate pipeline concurrency
	if c.IngestConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid ingest concurrency %d: must be at least 1", c.IngestConcurrency))
	} else if c.IngestConcurrency > 16 {
		errors = append(errors, fmt.Sprintf("invalid ingest concurrency %d: must be at most 16", c.IngestConcurrency))
	}

	// Validate worker configuration
	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
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
