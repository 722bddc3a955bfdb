package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != "127.0.0.1:5055" {
		t.Errorf("expected 127.0.0.1:5055, got %s", cfg.Listen)
	}
	if cfg.Endpoints.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Endpoints.Timeout)
	}
	if cfg.Endpoints.Schemes[0] != "https" {
		t.Errorf("expected https as preferred scheme, got %s", cfg.Endpoints.Schemes[0])
	}
	if !cfg.Settings["TI_on"] || cfg.Settings["SC_on"] {
		t.Errorf("unexpected default settings: %v", cfg.Settings)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_ORIGIN", "chrome-extension://abc")

	content := `
listen: "127.0.0.1:9090"
db_path: "test.db"
endpoints:
  hosts:
    - primary.example.com
    - 10.0.0.1:5002
  schemes: [https, http]
  path: /translate
  timeout: 2s
  origin: ${TEST_ORIGIN}
probe:
  url: http://probe.example.com
warmup:
  enabled: false
history:
  retention_days: 7
settings:
  TI_on: false
  SC_on: true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != "127.0.0.1:9090" {
		t.Errorf("expected 127.0.0.1:9090, got %s", cfg.Listen)
	}
	if cfg.Endpoints.Origin != "chrome-extension://abc" {
		t.Errorf("env var not expanded: got %s", cfg.Endpoints.Origin)
	}
	if len(cfg.Endpoints.Hosts) != 2 || cfg.Endpoints.Hosts[1] != "10.0.0.1:5002" {
		t.Errorf("unexpected hosts: %v", cfg.Endpoints.Hosts)
	}
	if cfg.Endpoints.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", cfg.Endpoints.Timeout)
	}
	if cfg.Warmup.Enabled {
		t.Error("expected warmup disabled")
	}
	if cfg.History.RetentionDays != 7 {
		t.Errorf("expected 7 retention days, got %d", cfg.History.RetentionDays)
	}
	if !cfg.History.Enabled {
		t.Error("history should keep its default when not set")
	}
	if cfg.Settings["TI_on"] || !cfg.Settings["SC_on"] {
		t.Errorf("unexpected settings: %v", cfg.Settings)
	}
}

func TestLoadSettingsSingleTarget(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		wantTI bool
		wantSC bool
		wantE  bool
	}{
		{"sc on", "settings:\n  SC_on: true\n", false, true, false},
		{"ti off", "settings:\n  TI_on: false\n", false, true, false},
		{"other toggle only", "settings:\n  e_on: true\n", true, false, true},
		{"no settings block", "listen: 127.0.0.1:1\n", true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Settings["TI_on"] != tt.wantTI || cfg.Settings["SC_on"] != tt.wantSC {
				t.Errorf("TI_on=%v SC_on=%v, want %v/%v", cfg.Settings["TI_on"], cfg.Settings["SC_on"], tt.wantTI, tt.wantSC)
			}
			if cfg.Settings["e_on"] != tt.wantE {
				t.Errorf("e_on=%v, want %v", cfg.Settings["e_on"], tt.wantE)
			}
			if !cfg.Settings["constants_on"] {
				t.Error("constants_on should keep its default")
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoints.Hosts[0] != Default().Endpoints.Hosts[0] {
		t.Errorf("expected default hosts, got %v", cfg.Endpoints.Hosts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no hosts", func(c *Config) { c.Endpoints.Hosts = nil }},
		{"no schemes", func(c *Config) { c.Endpoints.Schemes = nil }},
		{"bad scheme", func(c *Config) { c.Endpoints.Schemes = []string{"ftp"} }},
		{"zero timeout", func(c *Config) { c.Endpoints.Timeout = 0 }},
		{"relative path", func(c *Config) { c.Endpoints.Path = "translate" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("WARN")
	if err != nil || lvl != slog.LevelWarn {
		t.Errorf("got %v, %v", lvl, err)
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
