package config

import (
	"fmt"
	"strconv"
	"time"
)

// Environment variables that override file configuration.
const (
	EnvNodeCount    = "NODE_COUNT"
	EnvTickInterval = "TICK_INTERVAL"
	EnvSeed         = "SIM_SEED"
	EnvScenario     = "SIM_SCENARIO"
)

// ApplyEnv overlays environment overrides onto c. getenv is usually os.Getenv.
func (c *SimulationConfig) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvNodeCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, EnvNodeCount, err)
		}
		c.NodeCount = n
	}
	if v := getenv(EnvTickInterval); v != "" {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, EnvTickInterval, err)
		}
		c.TickInterval = v
	}
	if v := getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, EnvSeed, err)
		}
		c.Seed = &seed
	}
	if v := getenv(EnvScenario); v != "" {
		c.Scenario = v
	}
	return nil
}
