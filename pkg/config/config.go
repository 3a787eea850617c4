// Package config loads polybool settings from POLYBOOL_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chazu/polybool/pkg/csg"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, as in POLYBOOL_KERNEL.
const Prefix = "POLYBOOL"

// Kernel names.
const (
	KernelPolyhedral = "polyhedral"
	KernelSdfx       = "sdfx"
)

// Config holds every tunable setting. Field tags carry the defaults.
type Config struct {
	Kernel       string        `envconfig:"KERNEL" default:"polyhedral"`
	Seed         uint64        `envconfig:"SEED" default:"1"`
	Perturbation float64       `envconfig:"PERTURBATION" default:"0"`
	Sequential   bool          `envconfig:"SEQUENTIAL" default:"false"`
	Segments     int           `envconfig:"SEGMENTS" default:"32"`
	MeshCells    int           `envconfig:"MESH_CELLS" default:"200"`
	EvalTimeout  time.Duration `envconfig:"EVAL_TIMEOUT" default:"5s"`
	LogLevel     slog.Level    `envconfig:"LOG_LEVEL" default:"info"`
}

// Default returns the settings Load produces with no POLYBOOL_* variables
// set.
func Default() *Config {
	return &Config{
		Kernel:      KernelPolyhedral,
		Seed:        1,
		Segments:    32,
		MeshCells:   200,
		EvalTimeout: 5 * time.Second,
		LogLevel:    slog.LevelInfo,
	}
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can use.
func (c *Config) Validate() error {
	switch c.Kernel {
	case KernelPolyhedral, KernelSdfx:
	default:
		return fmt.Errorf("config: unknown kernel %q, want %s or %s", c.Kernel, KernelPolyhedral, KernelSdfx)
	}
	if c.Segments < 3 {
		return fmt.Errorf("config: segments must be at least 3, got %d", c.Segments)
	}
	if c.MeshCells <= 0 {
		return fmt.Errorf("config: mesh cells must be positive, got %d", c.MeshCells)
	}
	if c.Perturbation < 0 {
		return fmt.Errorf("config: perturbation must not be negative, got %g", c.Perturbation)
	}
	if c.EvalTimeout <= 0 {
		return fmt.Errorf("config: eval timeout must be positive, got %s", c.EvalTimeout)
	}
	return nil
}

// CSGOptions returns the Boolean engine options. A zero perturbation
// selects the engine default.
func (c *Config) CSGOptions() csg.Options {
	return csg.Options{
		Seed:         c.Seed,
		Perturbation: c.Perturbation,
		Sequential:   c.Sequential,
	}
}
