package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/latextocalc/latextocalc/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all latextocalc configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	DBPath    string          `yaml:"db_path"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Probe     ProbeConfig     `yaml:"probe"`
	Warmup    WarmupConfig    `yaml:"warmup"`
	History   HistoryConfig   `yaml:"history"`
	Settings  models.Settings `yaml:"settings"`
}

// EndpointsConfig declares the translation service candidates.
// Hosts and schemes are combined in declaration order; the first host with
// the first scheme is the primary endpoint.
type EndpointsConfig struct {
	Hosts   []string      `yaml:"hosts"`
	Schemes []string      `yaml:"schemes"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
	Origin  string        `yaml:"origin"`
}

// ProbeConfig controls the connectivity check used to classify failures.
type ProbeConfig struct {
	URL string `yaml:"url"`
}

// WarmupConfig controls the startup request to the primary endpoint.
type WarmupConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Delay      time.Duration `yaml:"delay"`
	Expression string        `yaml:"expression"`
}

// HistoryConfig controls the pipeline history store.
type HistoryConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:5055",
		DBPath: "latextocalc.db",
		Endpoints: EndpointsConfig{
			Hosts:   []string{"otso.veistera.com", "otsoveistera.xyz", "207.127.91.252", "207.127.91.252:5002"},
			Schemes: []string{"https", "http"},
			Path:    "/translate",
			Timeout: 5 * time.Second,
		},
		Probe: ProbeConfig{
			URL: "https://clients3.google.com/generate_204",
		},
		Warmup: WarmupConfig{
			Enabled:    true,
			Expression: "1",
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Settings: models.DefaultSettings(),
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	// Decode toggles on their own so a single SC_on: true flips TI off
	// instead of being merged into the default map.
	cfg.Settings = nil
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Settings = models.DefaultSettings().Apply(cfg.Settings)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate rejects configurations the dispatcher cannot work with.
func (c *Config) Validate() error {
	if len(c.Endpoints.Hosts) == 0 {
		return errors.New("config: endpoints.hosts is empty")
	}
	if len(c.Endpoints.Schemes) == 0 {
		return errors.New("config: endpoints.schemes is empty")
	}
	for _, s := range c.Endpoints.Schemes {
		if s != "http" && s != "https" {
			return fmt.Errorf("config: unsupported scheme %q", s)
		}
	}
	if c.Endpoints.Timeout <= 0 {
		return errors.New("config: endpoints.timeout must be positive")
	}
	if !strings.HasPrefix(c.Endpoints.Path, "/") {
		return fmt.Errorf("config: endpoints.path %q must start with /", c.Endpoints.Path)
	}
	return nil
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", logLevel)
	}
}
