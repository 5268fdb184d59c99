package kumi

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables of a World. It can be built in code, starting
// from DefaultConfig, or loaded from YAML:
//
//	initial_capacity: 4096
//	column_capacity: 128
//	checked_borrows: true
//	log_level: debug
type Config struct {
	// LogLevel is a zerolog level name applied to the World's logger.
	LogLevel string `yaml:"log_level"`
	// InitialCapacity is the number of entity slots allocated up front.
	InitialCapacity int `yaml:"initial_capacity"`
	// ColumnCapacity is the number of rows each new archetype allocates.
	ColumnCapacity int `yaml:"column_capacity"`
	// CheckedBorrows enables the aliasing checks of queries and the guard
	// against structural changes to borrowed archetypes.
	CheckedBorrows bool `yaml:"checked_borrows"`
}

// DefaultConfig returns the configuration NewWorld uses when none is given.
func DefaultConfig() Config {
	return Config{
		LogLevel:        zerolog.InfoLevel.String(),
		InitialCapacity: 1024,
		ColumnCapacity:  64,
		CheckedBorrows:  true,
	}
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, eris.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "read config %q", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, eris.Wrapf(err, "load config %q", path)
	}
	return cfg, nil
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	if c.InitialCapacity < 0 {
		return eris.Wrapf(ErrInvalidConfig, "initial_capacity must not be negative, got %d", c.InitialCapacity)
	}
	if c.ColumnCapacity < 0 {
		return eris.Wrapf(ErrInvalidConfig, "column_capacity must not be negative, got %d", c.ColumnCapacity)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, eris.Wrapf(ErrInvalidConfig, "log_level %q", c.LogLevel)
	}
	return lvl, nil
}
