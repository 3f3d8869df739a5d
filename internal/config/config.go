// Package config defines process configuration and its layered loader.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains process configuration.
type Config struct {
	// DBPath is the SQLite file backing the store.
	DBPath string `koanf:"db_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// CutoffRatio is the share of the pool field advancing to elimination
	// when an event's rule does not set one.
	CutoffRatio float64 `koanf:"cutoff_ratio"`

	// RulebookPath optionally points at a CUE rulebook replacing the
	// embedded one.
	RulebookPath string `koanf:"rulebook_path"`

	Sync    SyncConfig    `koanf:"sync"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// SyncConfig configures the best-effort remote publisher. An empty NATSURL
// disables it.
type SyncConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DBPath:      "piste.db",
		LogLevel:    "info",
		CutoffRatio: 0.8,
		Sync: SyncConfig{
			SubjectPrefix: "piste",
		},
		Metrics: MetricsConfig{
			Namespace: "piste",
		},
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if c.CutoffRatio <= 0 || c.CutoffRatio > 1 {
		return fmt.Errorf("%w: cutoff_ratio must be in (0,1], got %v", ErrInvalidConfig, c.CutoffRatio)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Sync.NATSURL != "" && c.Sync.SubjectPrefix == "" {
		return fmt.Errorf("%w: sync.subject_prefix must not be empty when sync.nats_url is set", ErrInvalidConfig)
	}
	return nil
}

// ParseLevel maps a log_level string onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, s)
	}
}
