package units

import "fmt"

// Length unit constants
const (
	Meters      = "m"
	Centimeters = "cm"
	Feet        = "ft"
	Inches      = "in"
)

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{Meters, Centimeters, Feet, Inches}

// IsValidLength checks if the given unit is a valid length unit
func IsValidLength(unit string) bool {
	for _, validUnit := range ValidLengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidLengthUnitsString returns a comma-separated string of valid length units for error messages
func GetValidLengthUnitsString() string {
	return "m, cm, ft, in"
}

// ConvertLength converts a length in meters to the target units. Unknown
// units return meters.
func ConvertLength(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Centimeters:
		return meters * 100
	case Feet:
		return meters / 0.3048
	case Inches:
		return meters / 0.0254
	default:
		return meters
	}
}

// FormatLength renders a length in meters in the given unit. Centimeters and
// inches are shown with one decimal, meters and feet with two.
func FormatLength(meters float64, unit string) string {
	if !IsValidLength(unit) {
		unit = Meters
	}
	v := ConvertLength(meters, unit)
	switch unit {
	case Centimeters, Inches:
		return fmt.Sprintf("%.1f %s", v, unit)
	default:
		return fmt.Sprintf("%.2f %s", v, unit)
	}
}
