package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/centromex/foodwaste/internal/db"
)

// DefaultPath is where the binaries look for a config file.
const DefaultPath = "foodwaste.yaml"

// Config holds all dashboard configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StorageConfig selects the backend holding the four tables.
type StorageConfig struct {
	Backend string      `yaml:"backend"` // memory, csv, sqlite
	DBPath  string      `yaml:"db_path"`
	CSVDir  string      `yaml:"csv_dir"`
	Files   db.CSVFiles `yaml:"files"`
}

// TelegramConfig configures the chat shell.
type TelegramConfig struct {
	Token     string  `yaml:"token"`
	EditorIDs []int64 `yaml:"editor_ids"` // users allowed to add, update and delete listings
	Timeout   int     `yaml:"timeout"`    // long-poll seconds
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: db.BackendSQLite,
			DBPath:  "./data/foodwaste.db",
			CSVDir:  "./data/csv",
			Files:   db.DefaultCSVFiles,
		},
		Telegram: TelegramConfig{
			Timeout: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("FOODWASTE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("FOODWASTE_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("FOODWASTE_CSV_DIR"); v != "" {
		c.Storage.CSVDir = v
	}
	if v := os.Getenv("FOODWASTE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("EDITOR_IDS"); v != "" {
		ids, err := ParseIDs(v)
		if err != nil {
			return fmt.Errorf("invalid EDITOR_IDS: %w", err)
		}
		c.Telegram.EditorIDs = ids
	}
	return nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case db.BackendMemory:
	case db.BackendCSV:
		if c.Storage.CSVDir == "" {
			return fmt.Errorf("storage.csv_dir is required for the csv backend")
		}
	case db.BackendSQLite:
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// StoreOptions converts the storage section for db.Open.
func (c *Config) StoreOptions() db.Options {
	return db.Options{
		Backend:  c.Storage.Backend,
		DBPath:   c.Storage.DBPath,
		CSVDir:   c.Storage.CSVDir,
		CSVFiles: c.Storage.Files,
	}
}

// ParseIDs parses a comma-separated list of integer ids.
func ParseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
