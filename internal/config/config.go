// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fsa-anomaly-lab/internal/anomaly"
	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

const (
	// DefaultNodeCount is used when the configuration does not set node_count.
	DefaultNodeCount = 10
	// BaseInterval is the tick interval at 1x speed.
	BaseInterval = time.Second
	// DefaultAdminAddr is where the admin UI listens unless overridden.
	DefaultAdminAddr = ":8080"
)

// ErrInvalid is returned for configuration that parses but cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// WeightConfig is one entry of an event distribution override.
type WeightConfig struct {
	Event string  `yaml:"event"`
	P     float64 `yaml:"p"`
}

// HealthConfig tunes the per-tick health policy.
type HealthConfig struct {
	Penalty           *int `yaml:"penalty"`
	RegenPerCleanTick int  `yaml:"regen_per_clean_tick"`
}

// SimulationConfig is the root configuration of a simulation run.
type SimulationConfig struct {
	NodeCount     int                       `yaml:"node_count"`
	Speed         float64                   `yaml:"speed"`
	TickInterval  string                    `yaml:"tick_interval"`
	Seed          *int64                    `yaml:"seed"`
	Scenario      string                    `yaml:"scenario"`
	AdminAddr     string                    `yaml:"admin_addr"`
	Health        HealthConfig              `yaml:"health"`
	Distributions map[string][]WeightConfig `yaml:"distributions"`
}

// Default returns the configuration used when no file is given.
func Default() *SimulationConfig {
	return &SimulationConfig{
		NodeCount: DefaultNodeCount,
		Speed:     1,
		AdminAddr: DefaultAdminAddr,
	}
}

// Load loads YAML config and validates it against a CUE schema.
// An empty cueSchemaPath skips schema validation.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("loaded configuration", "path", configPath, "node_count", cfg.NodeCount, "speed", cfg.Speed, "tick_interval", cfg.TickInterval)

	return cfg, nil
}

// Validate checks fields the schema cannot express. Node count is never
// rejected; it is clamped when the simulator is built.
func (c *SimulationConfig) Validate() error {
	if _, err := c.Interval(); err != nil {
		return err
	}
	if _, err := c.EventDistributions(); err != nil {
		return err
	}
	if c.Health.Penalty != nil && *c.Health.Penalty < 0 {
		return fmt.Errorf("%w: health.penalty must be >= 0", ErrInvalid)
	}
	if c.Health.RegenPerCleanTick < 0 {
		return fmt.Errorf("%w: health.regen_per_clean_tick must be >= 0", ErrInvalid)
	}
	return nil
}

// ClampNodeCount maps non-positive counts to 1.
func ClampNodeCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Nodes returns the clamped node count.
func (c *SimulationConfig) Nodes() int {
	return ClampNodeCount(c.NodeCount)
}

// IntervalForSpeed converts a speed multiplier into a tick interval
// (1x→1s, 2x→500ms, 4x→250ms). Non-positive multipliers mean 1x.
func IntervalForSpeed(multiplier float64) time.Duration {
	if multiplier <= 0 {
		multiplier = 1
	}
	return time.Duration(float64(BaseInterval) / multiplier)
}

// Interval returns the configured tick interval. An explicit tick_interval wins over speed.
func (c *SimulationConfig) Interval() (time.Duration, error) {
	if c.TickInterval == "" {
		return IntervalForSpeed(c.Speed), nil
	}
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("%w: tick_interval: %v", ErrInvalid, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: tick_interval must be positive", ErrInvalid)
	}
	return d, nil
}

// EventDistributions converts distribution overrides into generator input.
func (c *SimulationConfig) EventDistributions() (map[fsa.State]telemetry.Distribution, error) {
	if len(c.Distributions) == 0 {
		return nil, nil
	}
	out := make(map[fsa.State]telemetry.Distribution, len(c.Distributions))
	for name, weights := range c.Distributions {
		state, err := fsa.ParseState(name)
		if err != nil {
			return nil, fmt.Errorf("%w: distributions: %v", ErrInvalid, err)
		}
		if len(weights) == 0 {
			return nil, fmt.Errorf("%w: distributions.%s is empty", ErrInvalid, name)
		}
		d := make(telemetry.Distribution, 0, len(weights))
		for _, w := range weights {
			ev, err := fsa.ParseEvent(w.Event)
			if err != nil {
				return nil, fmt.Errorf("%w: distributions.%s: %v", ErrInvalid, name, err)
			}
			if w.P < 0 {
				return nil, fmt.Errorf("%w: distributions.%s.%s has negative weight", ErrInvalid, name, w.Event)
			}
			d = append(d, telemetry.Weight{Event: ev, P: w.P})
		}
		out[state] = d
	}
	return out, nil
}

// HealthPolicy returns the configured health policy.
func (c *SimulationConfig) HealthPolicy() anomaly.HealthPolicy {
	p := anomaly.DefaultHealthPolicy()
	if c.Health.Penalty != nil {
		p.Penalty = *c.Health.Penalty
	}
	p.Regen = c.Health.RegenPerCleanTick
	return p
}
