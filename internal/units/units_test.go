package units

import (
	"math"
	"testing"
)

func TestIsValidSpeed(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "knots", false},
		{"empty unit", "", false},
		{"uppercase MPS", "MPS", false}, // Case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidSpeed(tt.unit); got != tt.expected {
				t.Errorf("IsValidSpeed(%s) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		unit     string
		expected float64
	}{
		{"1.4 m/s to mps", 1.4, MPS, 1.4},
		{"1 m/s to mph", 1.0, MPH, 2.2369362920544},
		{"1 m/s to kmph", 1.0, KMPH, 3.6},
		{"1.5 m/s to kph", 1.5, KPH, 5.4},
		{"unknown unit falls back to m/s", 1.2, "furlongs", 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertSpeed(tt.speedMPS, tt.unit); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.unit, got, tt.expected)
			}
		})
	}
}

func TestWalkingSpeed(t *testing.T) {
	tests := []struct {
		name     string
		length   float64
		duration float64
		expected float64
	}{
		{"typical stride", 0.6886, 0.5, 1.3772},
		{"zero duration", 0.7, 0, 0},
		{"negative duration", 0.7, -1, 0},
		{"nan duration", 0.7, math.NaN(), 0},
		{"infinite length", math.Inf(1), 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WalkingSpeed(tt.length, tt.duration); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("WalkingSpeed(%v, %v) = %v, want %v", tt.length, tt.duration, got, tt.expected)
			}
		})
	}
}

func TestConvertLength(t *testing.T) {
	tests := []struct {
		unit     string
		expected float64
	}{
		{Meters, 0.762},
		{Centimeters, 76.2},
		{Feet, 2.5},
		{Inches, 30},
		{"yd", 0.762},
	}

	for _, tt := range tests {
		if got := ConvertLength(0.762, tt.unit); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("ConvertLength(0.762, %s) = %v, want %v", tt.unit, got, tt.expected)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := FormatLength(0.762, Centimeters); got != "76.2 cm" {
		t.Errorf("FormatLength = %q", got)
	}
	if got := FormatLength(0.762, "bogus"); got != "0.76 m" {
		t.Errorf("FormatLength fallback = %q", got)
	}
	if got := FormatSpeed(1.5, KPH); got != "5.40 kph" {
		t.Errorf("FormatSpeed = %q", got)
	}
	if !IsValidLength(Feet) || IsValidLength("yd") {
		t.Error("IsValidLength mismatch")
	}
	if GetValidLengthUnitsString() != "m, cm, ft, in" || GetValidSpeedUnitsString() != "mps, mph, kmph, kph" {
		t.Error("unexpected valid units string")
	}
}
