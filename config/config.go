// Package config handles gserver.toml server configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/torchlight/gserver/pkg/bytecode"
)

// Config is the top-level gserver.toml layout.
type Config struct {
	Server  Server  `toml:"server"`
	Limits  Limits  `toml:"limits"`
	Storage Storage `toml:"storage"`
	Logging Logging `toml:"logging"`
}

// Server configures the engine itself.
type Server struct {
	// MaxParallel bounds concurrent owners during event broadcasts.
	MaxParallel int `toml:"max-parallel"`

	// ScriptCacheSize bounds the compiled-script LRU cache.
	ScriptCacheSize int `toml:"script-cache-size"`
}

// Limits bounds a single script invocation.
type Limits struct {
	MaxFrameDepth     int    `toml:"max-frame-depth"`
	MaxStackDepth     int    `toml:"max-stack-depth"`
	InstructionBudget int    `toml:"instruction-budget"`
	WallClock         string `toml:"wall-clock"`
}

// Storage configures globals persistence.
type Storage struct {
	// Path is the SQLite database file; empty disables persistence.
	Path string `toml:"path"`
}

// Logging configures log output.
type Logging struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{
			MaxParallel:     8,
			ScriptCacheSize: 256,
		},
	}
}

// Load parses a gserver.toml file and applies defaults to unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if cfg.Server.MaxParallel <= 0 {
		cfg.Server.MaxParallel = 8
	}
	if cfg.Server.ScriptCacheSize <= 0 {
		cfg.Server.ScriptCacheSize = 256
	}
	if _, err := cfg.VMLimits(); err != nil {
		return nil, fmt.Errorf("invalid limits in %s: %w", path, err)
	}
	return cfg, nil
}

// VMLimits converts the configured limits to execution limits. Unset
// fields stay zero and fall back to the VM defaults.
func (c *Config) VMLimits() (bytecode.Limits, error) {
	limits := bytecode.Limits{
		MaxFrameDepth:     c.Limits.MaxFrameDepth,
		MaxStackDepth:     c.Limits.MaxStackDepth,
		InstructionBudget: c.Limits.InstructionBudget,
	}
	if c.Limits.WallClock != "" {
		d, err := time.ParseDuration(c.Limits.WallClock)
		if err != nil {
			return limits, fmt.Errorf("wall-clock: %w", err)
		}
		limits.WallClock = d
	}
	return limits, nil
}
