// Package config loads the netutil daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StrategyAuto      = "auto"
	StrategyCallback  = "callback"
	StrategyBroadcast = "broadcast"
)

// Config represents configuration data for the netutil daemon.
type Config struct {
	// Strategy selects the notification mechanism: auto, callback or broadcast.
	Strategy            string    `yaml:"strategy"`
	PollIntervalSeconds int       `yaml:"poll_interval_seconds"`
	ForcePolling        bool      `yaml:"force_polling"`
	ListenAddr          string    `yaml:"listen_addr"`
	Reload              bool      `yaml:"reload"`
	Log                 LogConfig `yaml:"log"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() Config {
	return Config{
		Strategy:            StrategyAuto,
		PollIntervalSeconds: 5,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from a YAML file. Missing files fall back to
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills zero values with defaults and rejects invalid settings.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	switch c.Strategy {
	case StrategyAuto, StrategyCallback, StrategyBroadcast:
	default:
		return fmt.Errorf("invalid strategy %q: must be auto, callback or broadcast", c.Strategy)
	}
	if c.PollIntervalSeconds < 0 {
		return fmt.Errorf("poll_interval_seconds must not be negative")
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = def.PollIntervalSeconds
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = def.Log.Output
	}
	if c.Log.Output == "file" && c.Log.File == "" {
		return errors.New("log.file is required when log.output is file")
	}
	return nil
}

// PollInterval returns the polling host interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// MonitorStrategy maps the configured strategy to the monitor's naming,
// where automatic selection is the empty string.
func (c Config) MonitorStrategy() string {
	if c.Strategy == StrategyAuto {
		return ""
	}
	return c.Strategy
}
