package system_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickforge/tickforge/internal/core/system"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, system.DefaultConfig().Validate())

	cases := []struct {
		name string
		mut  func(*system.Config)
	}{
		{"zero fixed rate", func(c *system.Config) { c.FixedUpdateRate = 0 }},
		{"negative fixed rate", func(c *system.Config) { c.FixedUpdateRate = -1 }},
		{"zero max delta", func(c *system.Config) { c.MaxDeltaTime = 0 }},
		{"negative threshold", func(c *system.Config) { c.FailureThreshold = -1 }},
		{"zero time scale", func(c *system.Config) { c.TimeScale = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := system.DefaultConfig()
			tc.mut(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("partial yaml keeps defaults", func(t *testing.T) {
		cfg, err := system.LoadConfig(strings.NewReader("fixed_update_rate: 30\n"))
		require.NoError(t, err)
		require.Equal(t, 30.0, cfg.FixedUpdateRate)
		require.Equal(t, system.DefaultConfig().MaxDeltaTime, cfg.MaxDeltaTime)
		require.Equal(t, system.DefaultConfig().Parallel, cfg.Parallel)
	})

	t.Run("full yaml", func(t *testing.T) {
		in := `
fixed_update_rate: 120
max_delta_time: 0.25
failure_threshold: 3
parallel: false
time_scale: 2.0
`
		cfg, err := system.LoadConfig(strings.NewReader(in))
		require.NoError(t, err)
		require.Equal(t, system.Config{
			FixedUpdateRate:  120,
			MaxDeltaTime:     0.25,
			FailureThreshold: 3,
			Parallel:         false,
			TimeScale:        2.0,
		}, cfg)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		_, err := system.LoadConfig(strings.NewReader("fixed_update_rate: -5\n"))
		require.Error(t, err)
	})

	t.Run("malformed yaml is rejected", func(t *testing.T) {
		_, err := system.LoadConfig(strings.NewReader("fixed_update_rate: [oops\n"))
		require.Error(t, err)
	})
}
