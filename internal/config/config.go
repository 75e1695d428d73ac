package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config holds the process configuration read from the environment
type Config struct {
	// Environment is "development" or "production"
	Environment string
	LogLevel    string

	// StorageType selects where bankrolls and round history live
	StorageType string
	DataDir     string

	// ElasticsearchURL enables round indexing when set
	ElasticsearchURL         string
	ElasticsearchIndexPrefix string
	// ReindexInterval is how often recent rounds are pushed to the index again
	ReindexInterval time.Duration

	// RulesFile is an optional HCL file with table rules
	RulesFile string
}

// Load reads the configuration from environment variables, after loading a
// .env file if one exists
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	reindexInterval, err := time.ParseDuration(getEnvWithDefault("ELASTICSEARCH_REINDEX_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("ELASTICSEARCH_REINDEX_INTERVAL: %w", err)
	}

	cfg := &Config{
		Environment:              getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:                 getEnvWithDefault("LOG_LEVEL", "info"),
		StorageType:              strings.ToLower(getEnvWithDefault("STORAGE_TYPE", StorageMemory)),
		DataDir:                  getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data")),
		ElasticsearchURL:         os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchIndexPrefix: getEnvWithDefault("ELASTICSEARCH_INDEX_PREFIX", "blackjack"),
		ReindexInterval:          reindexInterval,
		RulesFile:                os.Getenv("RULES_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting has a usable value
func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("STORAGE_TYPE must be %q or %q, got %q", StorageMemory, StorageSQLite, c.StorageType)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.ReindexInterval < 0 {
		return fmt.Errorf("ELASTICSEARCH_REINDEX_INTERVAL cannot be negative")
	}
	if c.StorageType == StorageSQLite && c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required for sqlite storage")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// WalletDBPath is the SQLite file holding bankrolls and transactions
func (c *Config) WalletDBPath() string {
	return filepath.Join(c.DataDir, "wallet.db")
}

// GameDBPath is the SQLite file holding round history and statistics
func (c *Config) GameDBPath() string {
	return filepath.Join(c.DataDir, "rounds.db")
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
