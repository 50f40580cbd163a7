package machine

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agalakhov/millsim/internal/gcode"
)

// Config holds the machine limits the simulator enforces.
type Config struct {
	SafeZ    gcode.Micrometer
	MinSpeed uint16
	MaxSpeed uint16
	MinFeed  uint16
	MaxFeed  uint16
}

// DefaultConfig returns the stock machine limits.
func DefaultConfig() Config {
	return Config{
		SafeZ:    150_000,
		MinSpeed: 500,
		MaxSpeed: 5000,
		MinFeed:  10,
		MaxFeed:  400,
	}
}

// fileConfig is the YAML overlay shape. Lengths are millimeters.
type fileConfig struct {
	SafeZ    *float64 `yaml:"safe_z"`
	MinSpeed *uint16  `yaml:"min_speed"`
	MaxSpeed *uint16  `yaml:"max_speed"`
	MinFeed  *uint16  `yaml:"min_feed"`
	MaxFeed  *uint16  `yaml:"max_feed"`
}

// LoadConfig overlays a YAML limits file onto the defaults. Absent keys
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if fc.SafeZ != nil {
		if math.IsNaN(*fc.SafeZ) || math.IsInf(*fc.SafeZ, 0) {
			return cfg, fmt.Errorf("safe_z is not a finite number")
		}
		cfg.SafeZ = gcode.FromMM(*fc.SafeZ)
	}
	if fc.MinSpeed != nil {
		cfg.MinSpeed = *fc.MinSpeed
	}
	if fc.MaxSpeed != nil {
		cfg.MaxSpeed = *fc.MaxSpeed
	}
	if fc.MinFeed != nil {
		cfg.MinFeed = *fc.MinFeed
	}
	if fc.MaxFeed != nil {
		cfg.MaxFeed = *fc.MaxFeed
	}

	if cfg.MinSpeed > cfg.MaxSpeed {
		return cfg, fmt.Errorf("min_speed %d exceeds max_speed %d", cfg.MinSpeed, cfg.MaxSpeed)
	}
	if cfg.MinFeed > cfg.MaxFeed {
		return cfg, fmt.Errorf("min_feed %d exceeds max_feed %d", cfg.MinFeed, cfg.MaxFeed)
	}

	return cfg, nil
}
