package system

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config tunes the scheduler. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// FixedUpdateRate is the fixed-group step rate in updates per second.
	FixedUpdateRate float64 `json:"fixed_update_rate" yaml:"fixed_update_rate"`
	// MaxDeltaTime caps the per-frame elapsed time in seconds, so a hitch
	// or suspended host does not produce one giant step.
	MaxDeltaTime float64 `json:"max_delta_time" yaml:"max_delta_time"`
	// FailureThreshold deactivates a system after this many consecutive
	// update failures; zero disables the cutoff.
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`
	// Parallel enables concurrent execution of same-wave systems with
	// non-conflicting declared access sets.
	Parallel bool `json:"parallel" yaml:"parallel"`
	// TimeScale is the initial scale of the Time resource.
	TimeScale float64 `json:"time_scale" yaml:"time_scale"`
}

func DefaultConfig() Config {
	return Config{
		FixedUpdateRate:  50,
		MaxDeltaTime:     0.1,
		FailureThreshold: 0,
		Parallel:         true,
		TimeScale:        1.0,
	}
}

func (c Config) Validate() error {
	if c.FixedUpdateRate <= 0 {
		return fmt.Errorf("fixed_update_rate must be positive, got %v", c.FixedUpdateRate)
	}
	if c.MaxDeltaTime <= 0 {
		return fmt.Errorf("max_delta_time must be positive, got %v", c.MaxDeltaTime)
	}
	if c.FailureThreshold < 0 {
		return fmt.Errorf("failure_threshold must not be negative, got %d", c.FailureThreshold)
	}
	if c.TimeScale <= 0 {
		return fmt.Errorf("time_scale must be positive, got %v", c.TimeScale)
	}
	return nil
}

// LoadConfig reads a YAML config, filling unset fields from defaults.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decode scheduler config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
