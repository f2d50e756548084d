/*
config.go - Server configuration

PURPOSE:
  Holds the runtime configuration for the point ledger server and loads
  it from an optional TOML file. Command-line flags override file values.

FILE FORMAT (TOML):
  port = 8080
  db_path = "./data/points.db"
  sweep_interval = "1h"
  cors_origins = ["http://localhost:5173"]

  [scheduler]
  enabled = true

SEE ALSO:
  - cmd/server/main.go: Flag parsing and overrides
*/
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration.
type Config struct {
	Port        int      `toml:"port"`
	DBPath      string   `toml:"db_path"`
	SweepEvery  duration `toml:"sweep_interval"`
	CORSOrigins []string `toml:"cors_origins"`

	Scheduler SchedulerConfig `toml:"scheduler"`
}

// SchedulerConfig controls the background expiration scheduler.
type SchedulerConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:       8080,
		DBPath:     "points.db",
		SweepEvery: duration{1 * time.Hour},
		Scheduler:  SchedulerConfig{Enabled: true},
	}
}

// Load reads a TOML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.SweepEvery.Duration <= 0 {
		return Config{}, fmt.Errorf("sweep_interval must be positive")
	}
	return cfg, nil
}

// SweepInterval returns how often the scheduler runs.
func (c Config) SweepInterval() time.Duration {
	return c.SweepEvery.Duration
}

// duration lets TOML carry Go duration strings like "30m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}
