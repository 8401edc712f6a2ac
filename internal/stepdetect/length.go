package stepdetect

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// StrideLengthModel estimates stride length in meters from a stride duration
// in seconds.
type StrideLengthModel interface {
	Estimate(durationSeconds float64) (float64, error)
}

// Empirical constants of the stride length vs. step frequency relation.
const (
	FrequencyIntercept = 0.3608
	FrequencySlope     = 0.1639
)

// FrequencyModel estimates length as Factor * (a + b/duration).
type FrequencyModel struct {
	// Factor is a linear calibration factor, e.g. derived from leg length.
	Factor float64
}

// NewFrequencyModel returns a frequency model with the given calibration
// factor.
func NewFrequencyModel(factor float64) FrequencyModel {
	return FrequencyModel{Factor: factor}
}

// Estimate returns the stride length for duration. Non-positive or
// non-finite durations are not computable.
func (m FrequencyModel) Estimate(duration float64) (float64, error) {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return 0, fmt.Errorf("%w: duration %v", ErrNotComputable, duration)
	}
	return m.Factor * (FrequencyIntercept + FrequencySlope/duration), nil
}

// Noise is a source of zero-mean perturbations. distuv.Normal satisfies it.
type Noise interface {
	Rand() float64
}

// NoNoise is a Noise that always returns zero.
type NoNoise struct{}

// Rand returns 0.
func (NoNoise) Rand() float64 { return 0 }

// NewGaussianNoise returns seeded zero-mean Gaussian noise. A non-positive
// standard deviation yields NoNoise.
func NewGaussianNoise(stddev float64, seed uint64) Noise {
	if !(stddev > 0) {
		return NoNoise{}
	}
	return distuv.Normal{
		Mu:    0,
		Sigma: stddev,
		Src:   rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
}

// Anthropometric defaults.
const (
	DefaultHeightMeters          = 1.75
	DefaultHeightFactor          = 0.415
	DefaultNoiseStdDev           = 0.05
	DefaultMaxStrideLengthMeters = 1.0
)

// AnthropometricModel estimates length as Height*Factor plus noise. Results
// outside (0, MaxLength] are rejected, not clamped.
type AnthropometricModel struct {
	Height    float64
	Factor    float64
	MaxLength float64
	Noise     Noise
}

// NewAnthropometricModel returns a model for the given body height. A nil
// noise source disables the perturbation.
func NewAnthropometricModel(height, factor, maxLength float64, noise Noise) *AnthropometricModel {
	if noise == nil {
		noise = NoNoise{}
	}
	return &AnthropometricModel{
		Height:    height,
		Factor:    factor,
		MaxLength: maxLength,
		Noise:     noise,
	}
}

// Estimate returns the stride length. The duration only has to be positive;
// the estimate itself does not depend on it.
func (m *AnthropometricModel) Estimate(duration float64) (float64, error) {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return 0, fmt.Errorf("%w: duration %v", ErrNotComputable, duration)
	}
	length := m.Height*m.Factor + m.Noise.Rand()
	if !(length > 0) || length > m.MaxLength {
		return 0, fmt.Errorf("%w: length %.3fm outside (0, %.3f]", ErrNotComputable, length, m.MaxLength)
	}
	return length, nil
}
