package stepdetect

import (
	"math"
	"time"

	"github.com/banshee-data/stride.report/internal/timeutil"
)

// StrideVerdict classifies a measured stride duration.
type StrideVerdict int

const (
	// StrideNoBaseline is the verdict before any step and for the first
	// accepted step, which has no previous step to measure from. It is the
	// zero value so an unset verdict never reads as valid.
	StrideNoBaseline StrideVerdict = iota
	StrideValid
	StrideTooShort
	StrideTooLong
)

func (v StrideVerdict) String() string {
	switch v {
	case StrideValid:
		return "valid"
	case StrideNoBaseline:
		return "no baseline"
	case StrideTooShort:
		return "too short"
	case StrideTooLong:
		return "too long"
	default:
		return "unknown"
	}
}

func (v StrideVerdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Valid reports whether the duration may be turned into a step event.
func (v StrideVerdict) Valid() bool {
	return v == StrideValid
}

// Implausible is the negation of Valid.
func (v StrideVerdict) Implausible() bool {
	return v != StrideValid
}

// StrideTimer measures wall-clock time between accepted steps.
//
// Time comes from the injected clock, not from sensor timestamps: sensor
// delivery can be batched, so the processing clock is the reference.
type StrideTimer struct {
	clock timeutil.Clock
	min   time.Duration
	max   time.Duration

	last    time.Time
	hasLast bool
}

// NewStrideTimer returns a timer accepting durations in [minSeconds,
// maxSeconds]. A nil clock selects the real clock.
func NewStrideTimer(clock timeutil.Clock, minSeconds, maxSeconds float64) *StrideTimer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &StrideTimer{
		clock: clock,
		min:   secondsToDuration(minSeconds),
		max:   secondsToDuration(maxSeconds),
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// OnAcceptedStep records a step at the current clock time and returns the
// elapsed seconds since the previous one with its verdict. The first call
// returns NaN and StrideNoBaseline.
//
// The reference point moves to now on every call, including implausible
// ones, so a bad interval never corrupts the next measurement.
// TODO: revisit whether a too-long interval should keep the old reference
// (treat as a missed step) instead of restarting from now.
func (t *StrideTimer) OnAcceptedStep() (float64, StrideVerdict) {
	now := t.clock.Now()
	defer func() {
		t.last = now
		t.hasLast = true
	}()

	if !t.hasLast {
		return math.NaN(), StrideNoBaseline
	}

	elapsed := now.Sub(t.last)
	seconds := elapsed.Seconds()
	switch {
	case elapsed < t.min:
		return seconds, StrideTooShort
	case elapsed > t.max:
		return seconds, StrideTooLong
	default:
		return seconds, StrideValid
	}
}

// Reset forgets the previous step.
func (t *StrideTimer) Reset() {
	t.last = time.Time{}
	t.hasLast = false
}
