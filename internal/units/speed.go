// Package units provides shared constants, validation and conversion for
// the display units of stride length and walking speed.
package units

import (
	"fmt"
	"math"
)

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidSpeedUnits contains all valid speed unit values
var ValidSpeedUnits = []string{MPS, MPH, KMPH, KPH}

// IsValidSpeed checks if the given unit is a valid speed unit
func IsValidSpeed(unit string) bool {
	for _, validUnit := range ValidSpeedUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidSpeedUnitsString returns a comma-separated string of valid speed units for error messages
func GetValidSpeedUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// WalkingSpeed returns stride length divided by stride duration in m/s. It
// returns 0 when the duration is not positive or either input is not finite.
func WalkingSpeed(strideLengthMeters, strideDurationSeconds float64) float64 {
	if !(strideDurationSeconds > 0) || math.IsInf(strideDurationSeconds, 0) ||
		math.IsNaN(strideLengthMeters) || math.IsInf(strideLengthMeters, 0) {
		return 0
	}
	return strideLengthMeters / strideDurationSeconds
}

// FormatSpeed renders a m/s speed in the given unit with two decimals.
func FormatSpeed(speedMPS float64, unit string) string {
	if !IsValidSpeed(unit) {
		unit = MPS
	}
	return fmt.Sprintf("%.2f %s", ConvertSpeed(speedMPS, unit), unit)
}
