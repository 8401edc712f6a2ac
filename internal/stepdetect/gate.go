package stepdetect

import "math"

// GateResult is the classification of accumulated power.
type GateResult int

const (
	GateInRange GateResult = iota
	GatePowerTooLow
	GatePowerTooHigh
	GatePowerInvalid
)

func (r GateResult) String() string {
	switch r {
	case GateInRange:
		return "in range"
	case GatePowerTooLow:
		return "power too low"
	case GatePowerTooHigh:
		return "power too high"
	case GatePowerInvalid:
		return "power not a number"
	default:
		return "unknown"
	}
}

// MarshalText encodes the result by name.
func (r GateResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// InRange reports whether a candidate step may be accepted.
func (r GateResult) InRange() bool {
	return r == GateInRange
}

// Gate classifies cumulative signal power against the configured thresholds.
type Gate struct {
	Strategy GatingStrategy
	Low      float64
	High     float64
}

// NewGate builds the gate described by cfg.
func NewGate(cfg Config) Gate {
	return Gate{
		Strategy: cfg.Gating,
		Low:      cfg.LowPowerThreshold,
		High:     cfg.HighPowerThreshold,
	}
}

// Evaluate classifies power. Both thresholds are inclusive bounds of the
// accepted range.
func (g Gate) Evaluate(power float64) GateResult {
	if math.IsNaN(power) {
		return GatePowerInvalid
	}
	if power < g.Low {
		return GatePowerTooLow
	}
	if g.Strategy == GateDual && power > g.High {
		return GatePowerTooHigh
	}
	return GateInRange
}
