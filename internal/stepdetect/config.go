package stepdetect

import (
	"fmt"
	"math"
	"strings"
)

// Default detector parameters.
const (
	DefaultShortWindowSeconds = 0.2
	DefaultLongWindowSeconds  = 5 * DefaultShortWindowSeconds
	DefaultLowPowerThreshold  = 200.0
	DefaultHighPowerThreshold = 20000.0
	DefaultMinStrideSeconds   = 0.1
	DefaultMaxStrideSeconds   = 2.0
)

// GatingStrategy selects how accumulated power accepts or rejects a
// candidate step.
type GatingStrategy int

const (
	// GateDual accepts power within [low, high].
	GateDual GatingStrategy = iota
	// GateLowOnly accepts any power at or above low.
	GateLowOnly
)

func (g GatingStrategy) String() string {
	switch g {
	case GateDual:
		return "dual"
	case GateLowOnly:
		return "low"
	default:
		return fmt.Sprintf("GatingStrategy(%d)", int(g))
	}
}

// ParseGatingStrategy parses "dual" or "low". The empty string selects
// GateDual.
func ParseGatingStrategy(s string) (GatingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dual":
		return GateDual, nil
	case "low", "low_only", "single":
		return GateLowOnly, nil
	default:
		return 0, fmt.Errorf("%w: unknown gating strategy %q", ErrInvalidConfig, s)
	}
}

// Config holds the detector parameters. It is copied into the engine at
// construction and never changes afterwards.
type Config struct {
	ShortWindowSeconds float64 `json:"short_window_seconds"`
	LongWindowSeconds  float64 `json:"long_window_seconds"`
	LowPowerThreshold  float64 `json:"low_power_threshold"`
	HighPowerThreshold float64 `json:"high_power_threshold"`
	MinStrideSeconds   float64 `json:"min_stride_seconds"`
	MaxStrideSeconds   float64 `json:"max_stride_seconds"`

	Gating GatingStrategy `json:"-"`
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		ShortWindowSeconds: DefaultShortWindowSeconds,
		LongWindowSeconds:  DefaultLongWindowSeconds,
		LowPowerThreshold:  DefaultLowPowerThreshold,
		HighPowerThreshold: DefaultHighPowerThreshold,
		MinStrideSeconds:   DefaultMinStrideSeconds,
		MaxStrideSeconds:   DefaultMaxStrideSeconds,
		Gating:             GateDual,
	}
}

func validWindow(w float64) bool {
	return w > 0 && !math.IsInf(w, 0)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the configuration. Window errors wrap
// ErrInvalidWindowConfig; everything else wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if !validWindow(c.ShortWindowSeconds) {
		return fmt.Errorf("%w: short window must be positive, got %v", ErrInvalidWindowConfig, c.ShortWindowSeconds)
	}
	if !validWindow(c.LongWindowSeconds) {
		return fmt.Errorf("%w: long window must be positive, got %v", ErrInvalidWindowConfig, c.LongWindowSeconds)
	}
	if !finite(c.LowPowerThreshold) || c.LowPowerThreshold < 0 {
		return fmt.Errorf("%w: low power threshold must be non-negative, got %v", ErrInvalidConfig, c.LowPowerThreshold)
	}
	if c.Gating == GateDual {
		if math.IsNaN(c.HighPowerThreshold) || c.HighPowerThreshold < c.LowPowerThreshold {
			return fmt.Errorf("%w: high power threshold %v below low threshold %v", ErrInvalidConfig, c.HighPowerThreshold, c.LowPowerThreshold)
		}
	}
	if c.Gating != GateDual && c.Gating != GateLowOnly {
		return fmt.Errorf("%w: unknown gating strategy %v", ErrInvalidConfig, c.Gating)
	}
	if !finite(c.MinStrideSeconds) || c.MinStrideSeconds < 0 {
		return fmt.Errorf("%w: min stride must be non-negative, got %v", ErrInvalidConfig, c.MinStrideSeconds)
	}
	if !finite(c.MaxStrideSeconds) || c.MaxStrideSeconds <= c.MinStrideSeconds {
		return fmt.Errorf("%w: max stride %v must exceed min stride %v", ErrInvalidConfig, c.MaxStrideSeconds, c.MinStrideSeconds)
	}
	return nil
}
