package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains runtime configuration required by the service.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	HTTP      HTTPConfig      `yaml:"http"`
	Retention RetentionConfig `yaml:"retention"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// DatabaseConfig selects the event store backend.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver"`
	// URL is a Postgres connection string or a SQLite file path.
	URL string `yaml:"url"`
}

// HTTPConfig holds listener and request settings.
type HTTPConfig struct {
	Addr         string `yaml:"addr"`
	PublicDir    string `yaml:"public_dir"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// RetentionConfig controls the retention sweeper.
type RetentionConfig struct {
	Days     int           `yaml:"days"`
	Interval time.Duration `yaml:"interval"`
}

// StorageConfig holds the quota reported by the usage endpoint.
type StorageConfig struct {
	QuotaBytes int64 `yaml:"quota_bytes"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Driver: "postgres"},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			PublicDir:    "./public",
			MaxBodyBytes: 1 << 20,
		},
		Retention: RetentionConfig{
			Days:     60,
			Interval: 24 * time.Hour,
		},
		Storage: StorageConfig{QuotaBytes: 1 << 30},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the config from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := env("DB_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := env("DB_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := env("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := env("PUBLIC_DIR"); v != "" {
		cfg.HTTP.PublicDir = v
	}
	if v := env("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.New("MAX_BODY_BYTES must be an integer")
		}
		cfg.HTTP.MaxBodyBytes = n
	}
	if v := env("RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("RETENTION_DAYS must be an integer")
		}
		cfg.Retention.Days = n
	}
	if v := env("RETENTION_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("RETENTION_INTERVAL must be a duration such as 24h")
		}
		cfg.Retention.Interval = d
	}
	if v := env("STORAGE_QUOTA_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.New("STORAGE_QUOTA_BYTES must be an integer")
		}
		cfg.Storage.QuotaBytes = n
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_JSON"); v != "" {
		cfg.Log.JSON = v == "true" || v == "1"
	}
	return nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf(`DB_DRIVER must be "postgres" or "sqlite", got %q`, c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("DB_URL required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	if c.Retention.Days <= 0 {
		return errors.New("RETENTION_DAYS must be positive")
	}
	if c.Retention.Interval <= 0 {
		return errors.New("RETENTION_INTERVAL must be positive")
	}
	if c.Storage.QuotaBytes <= 0 {
		return errors.New("STORAGE_QUOTA_BYTES must be positive")
	}
	return nil
}

// RetentionHorizon is the age past which events are deleted.
func (c Config) RetentionHorizon() time.Duration {
	return time.Duration(c.Retention.Days) * 24 * time.Hour
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
