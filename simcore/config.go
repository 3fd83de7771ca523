package simcore

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/statecraft/ixsim/simcore/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig         `toml:"log"`
	DB      database.DBConfig `toml:"db"`
	Engine  EngineConfig      `toml:"engine"`
	Archive ArchiveConfig     `toml:"archive"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type EngineConfig struct {
	// RealEpoch is the wall-clock instant that maps to synthetic time zero.
	// Multiplier and pause state live in system_config and are re-read
	// every pass; the epoch is fixed for the lifetime of a deployment.
	RealEpoch      time.Time     `toml:"real_epoch"`
	Workers        int           `toml:"workers"`
	CountryTimeout time.Duration `toml:"country_timeout"`
}

type ArchiveConfig struct {
	Enabled  bool          `toml:"enabled"`
	Key      string        `toml:"key"`
	Secret   string        `toml:"secret"`
	Region   string        `toml:"region"`
	Bucket   string        `toml:"bucket"`
	Prefix   string        `toml:"prefix"`
	Interval time.Duration `toml:"interval"`
}
