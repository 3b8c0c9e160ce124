// Package config loads fundbook.yaml, with .env / environment overrides for
// the settings that vary between machines.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level fundbook.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig locates the sqlite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ImportConfig tunes the import pipeline.
type ImportConfig struct {
	PreviewRows int    `yaml:"preview_rows"`
	Tolerance   string `yaml:"tolerance"` // decimal string, e.g. "1.00"
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "fundbook.db"},
		Import:   ImportConfig{PreviewRows: 50, Tolerance: "1.00"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads a fundbook.yaml file, falling back to defaults when the file
// does not exist, then applies environment overrides. A .env file in the
// working directory is honored if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	_ = godotenv.Load()
	if v := os.Getenv("FUNDBOOK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FUNDBOOK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Tolerance parses the configured balance tolerance.
func (c *Config) Tolerance() (decimal.Decimal, error) {
	tol, err := decimal.NewFromString(c.Import.Tolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tolerance %q: %w", c.Import.Tolerance, err)
	}
	return tol, nil
}
