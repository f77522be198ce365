package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Feed      string `yaml:"feed"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"alpaca"`
	Roster struct {
		URL              string   `yaml:"url"`
		Symbols          []string `yaml:"symbols"`
		SnapshotFallback bool     `yaml:"snapshot_fallback"`
	} `yaml:"roster"`
	Fetch struct {
		Workers int `yaml:"workers"`
	} `yaml:"fetch"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Export struct {
		Format string `yaml:"format"`
		Dir    string `yaml:"dir"`
	} `yaml:"export"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; env and defaults
// alone are enough to run.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides. The Alpaca names follow the official
	// SDK conventions so existing credentials work unchanged.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("APCA_API_DATA_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_FEED"); v != "" {
		cfg.Alpaca.Feed = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("EXPORT_FORMAT"); v != "" {
		cfg.Export.Format = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	cfg.Fetch.Workers = getEnvInt("WORKERS", cfg.Fetch.Workers)

	// Defaults
	if cfg.Alpaca.Feed == "" {
		cfg.Alpaca.Feed = "iex"
	}
	if cfg.Fetch.Workers == 0 {
		cfg.Fetch.Workers = 1
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "marketdata.db"
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "exports"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Alpaca.APIKey == "" {
		return fmt.Errorf("alpaca.api_key is required (or set APCA_API_KEY_ID)")
	}
	if c.Alpaca.APISecret == "" {
		return fmt.Errorf("alpaca.api_secret is required (or set APCA_API_SECRET_KEY)")
	}
	if c.Fetch.Workers < 1 {
		return fmt.Errorf("fetch.workers must be positive")
	}
	return nil
}

// LogLevel maps the configured level name to a slog level. Unknown names
// fall back to info.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
