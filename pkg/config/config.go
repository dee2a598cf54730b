package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for psy-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// LogLevel controls zap's minimum level: debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// UIDir serves a pre-built console bundle from disk when set. Empty
	// falls back to the embedded bundle.
	UIDir string `yaml:"ui_dir" env:"UI_DIR" env-default:""`
}

// StorageConfig holds the local document store settings.
type StorageConfig struct {
	// DataDir is where the SQLite file lives. Created on startup if absent.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data"`
	// Filename of the SQLite database inside DataDir.
	Filename string `yaml:"filename" env:"DATA_FILENAME" env-default:"psy-engine.db"`
}

// DatabasePath returns the full path of the SQLite file.
func (s *StorageConfig) DatabasePath() string {
	return filepath.Join(s.DataDir, s.Filename)
}

// Load reads configuration from config.yaml with environment variable
// overrides. The file is optional; without it only env vars and defaults
// apply. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.UIDir != "" {
		if _, err := os.Stat(c.UIDir); err != nil {
			return fmt.Errorf("ui_dir does not exist: %w", err)
		}
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}
