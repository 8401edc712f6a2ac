package stepdetect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.2, cfg.ShortWindowSeconds)
	assert.Equal(t, 1.0, cfg.LongWindowSeconds)
	assert.Equal(t, 200.0, cfg.LowPowerThreshold)
	assert.Equal(t, 20000.0, cfg.HighPowerThreshold)
	assert.Equal(t, GateDual, cfg.Gating)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero short window", func(c *Config) { c.ShortWindowSeconds = 0 }, ErrInvalidWindowConfig},
		{"nan long window", func(c *Config) { c.LongWindowSeconds = math.NaN() }, ErrInvalidWindowConfig},
		{"negative low", func(c *Config) { c.LowPowerThreshold = -1 }, ErrInvalidConfig},
		{"high below low", func(c *Config) { c.HighPowerThreshold = 100 }, ErrInvalidConfig},
		{"unknown gating", func(c *Config) { c.Gating = GatingStrategy(7) }, ErrInvalidConfig},
		{"negative min stride", func(c *Config) { c.MinStrideSeconds = -0.1 }, ErrInvalidConfig},
		{"max not above min", func(c *Config) { c.MaxStrideSeconds = c.MinStrideSeconds }, ErrInvalidConfig},
		{"low only ignores high", func(c *Config) { c.Gating = GateLowOnly; c.HighPowerThreshold = 0 }, nil},
		{"infinite high", func(c *Config) { c.HighPowerThreshold = math.Inf(1) }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseGatingStrategy(t *testing.T) {
	for in, want := range map[string]GatingStrategy{
		"":         GateDual,
		"dual":     GateDual,
		" DUAL ":   GateDual,
		"low":      GateLowOnly,
		"low_only": GateLowOnly,
		"single":   GateLowOnly,
	} {
		got, err := ParseGatingStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseGatingStrategy("hysteresis")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, "dual", GateDual.String())
	assert.Equal(t, "low", GateLowOnly.String())
}
