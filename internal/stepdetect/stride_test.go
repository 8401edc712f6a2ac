package stepdetect

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/stride.report/internal/timeutil"
)

func TestStrideTimer(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	timer := NewStrideTimer(clock, 0.1, 2.0)

	d, v := timer.OnAcceptedStep()
	assert.True(t, math.IsNaN(d))
	assert.Equal(t, StrideNoBaseline, v)
	assert.True(t, v.Implausible())

	clock.Advance(time.Second)
	d, v = timer.OnAcceptedStep()
	assert.Equal(t, StrideValid, v)
	assert.InDelta(t, 1.0, d, 1e-9)

	clock.Advance(50 * time.Millisecond)
	d, v = timer.OnAcceptedStep()
	assert.Equal(t, StrideTooShort, v)
	assert.InDelta(t, 0.05, d, 1e-9)

	clock.Advance(3 * time.Second)
	_, v = timer.OnAcceptedStep()
	assert.Equal(t, StrideTooLong, v)

	// The baseline moved to the implausible step.
	clock.Advance(time.Second)
	d, v = timer.OnAcceptedStep()
	assert.Equal(t, StrideValid, v)
	assert.InDelta(t, 1.0, d, 1e-9)
}

func TestStrideTimer_BoundsAreInclusive(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(100, 0))
	timer := NewStrideTimer(clock, 0.1, 2.0)
	timer.OnAcceptedStep()

	clock.Advance(100 * time.Millisecond)
	_, v := timer.OnAcceptedStep()
	assert.Equal(t, StrideValid, v)

	clock.Advance(2 * time.Second)
	_, v = timer.OnAcceptedStep()
	assert.Equal(t, StrideValid, v)
}

func TestStrideTimer_ClockGoingBackwards(t *testing.T) {
	start := time.Unix(100, 0)
	clock := timeutil.NewMockClock(start)
	timer := NewStrideTimer(clock, 0.1, 2.0)
	timer.OnAcceptedStep()

	clock.Set(start.Add(-time.Second))
	d, v := timer.OnAcceptedStep()
	assert.Equal(t, StrideTooShort, v)
	assert.Less(t, d, 0.0)
}

func TestStrideTimer_Reset(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	timer := NewStrideTimer(clock, 0.1, 2.0)
	timer.OnAcceptedStep()
	clock.Advance(time.Second)
	timer.Reset()
	_, v := timer.OnAcceptedStep()
	assert.Equal(t, StrideNoBaseline, v)
}

func TestStrideTimer_NilClockUsesRealClock(t *testing.T) {
	timer := NewStrideTimer(nil, 0.1, 2.0)
	_, v := timer.OnAcceptedStep()
	assert.Equal(t, StrideNoBaseline, v)
	_, v = timer.OnAcceptedStep()
	assert.Equal(t, StrideTooShort, v)
}
