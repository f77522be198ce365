package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Alpaca.Feed != "iex" {
		t.Errorf("expected default feed iex, got %q", cfg.Alpaca.Feed)
	}
	if cfg.Fetch.Workers != 1 {
		t.Errorf("expected default workers 1, got %d", cfg.Fetch.Workers)
	}
	if cfg.Database.Path != "marketdata.db" {
		t.Errorf("expected default db path, got %q", cfg.Database.Path)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  api_key: key123
  api_secret: secret456
  feed: sip
roster:
  symbols: [AAPL, MSFT]
  snapshot_fallback: true
fetch:
  workers: 8
export:
  format: parquet
  dir: out
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Alpaca.APIKey != "key123" || cfg.Alpaca.Feed != "sip" {
		t.Errorf("unexpected alpaca config: %+v", cfg.Alpaca)
	}
	if len(cfg.Roster.Symbols) != 2 || !cfg.Roster.SnapshotFallback {
		t.Errorf("unexpected roster config: %+v", cfg.Roster)
	}
	if cfg.Fetch.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Fetch.Workers)
	}
	if cfg.Export.Format != "parquet" || cfg.Export.Dir != "out" {
		t.Errorf("unexpected export config: %+v", cfg.Export)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  api_key: from-file
database:
  path: file.db
`)
	t.Setenv("APCA_API_KEY_ID", "from-env")
	t.Setenv("DB_PATH", "env.db")
	t.Setenv("WORKERS", "16")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Alpaca.APIKey != "from-env" {
		t.Errorf("expected env to override file, got %q", cfg.Alpaca.APIKey)
	}
	if cfg.Database.Path != "env.db" {
		t.Errorf("expected env db path, got %q", cfg.Database.Path)
	}
	if cfg.Fetch.Workers != 16 {
		t.Errorf("expected env workers 16, got %d", cfg.Fetch.Workers)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to fail without credentials")
	}

	cfg.Alpaca.APIKey = "key"
	cfg.Alpaca.APISecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Fetch.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to fail with negative workers")
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{}
		cfg.Log.Level = tt.name
		if got := cfg.LogLevel(); got != tt.want {
			t.Errorf("LogLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
