// Package dsp provides the streaming filters used by the step detector:
// a moving average over a time window and a cumulative signal power
// accumulator.
//
// All filters are driven by sample timestamps in nanoseconds. Windows are
// defined by duration, never by sample count, so the filters behave the
// same under irregular or batched sensor delivery.
package dsp

import (
	"fmt"
	"math"
	"sort"
)

// minCompact is the number of evicted slots tolerated at the head of the
// buffer before the backing slice is compacted.
const minCompact = 64

type timedValue struct {
	ts    int64
	value float64
}

// TimeWindowedAverage maintains the arithmetic mean of a signal over the most
// recent window of time.
//
// Retained entries always satisfy ts > newest-window, where newest is the
// largest timestamp pushed so far. Samples arriving out of order are inserted
// at their sorted position; a late sample that already falls outside the
// window is dropped and Push reports false. A timestamp source that restarts
// (device reboot, counter reset) therefore needs Reset before the filter
// accepts samples again. Pushes with in-order timestamps are O(1) amortized.
//
// A TimeWindowedAverage is not safe for concurrent use.
type TimeWindowedAverage struct {
	window int64

	buf  []timedValue
	head int

	sum    float64
	newest int64
	seeded bool
}

// NewTimeWindowedAverage returns an average over the given window. The window
// must be a positive, finite number of seconds.
func NewTimeWindowedAverage(windowSeconds float64) (*TimeWindowedAverage, error) {
	if !(windowSeconds > 0) || math.IsInf(windowSeconds, 0) {
		return nil, fmt.Errorf("window must be positive and finite, got %v", windowSeconds)
	}
	window := int64(windowSeconds * 1e9)
	if window <= 0 {
		return nil, fmt.Errorf("window %v rounds to zero nanoseconds", windowSeconds)
	}
	return &TimeWindowedAverage{window: window}, nil
}

// Window returns the window duration in nanoseconds.
func (a *TimeWindowedAverage) Window() int64 {
	return a.window
}

// Push inserts an observation and evicts everything at or before
// newest-window. It reports false, retaining nothing, for non-finite values
// and for late samples already outside the window.
func (a *TimeWindowedAverage) Push(ts int64, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}

	if !a.seeded || ts >= a.newest {
		a.newest = ts
		a.seeded = true
		a.buf = append(a.buf, timedValue{ts: ts, value: value})
		a.sum += value
	} else {
		if a.Late(ts) {
			return false
		}
		live := a.buf[a.head:]
		i := sort.Search(len(live), func(i int) bool { return live[i].ts > ts })
		at := a.head + i
		a.buf = append(a.buf, timedValue{})
		copy(a.buf[at+1:], a.buf[at:])
		a.buf[at] = timedValue{ts: ts, value: value}
		a.sum += value
	}

	a.evict()
	return true
}

// Late reports whether a sample at ts would fall outside the window of the
// newest timestamp pushed so far.
func (a *TimeWindowedAverage) Late(ts int64) bool {
	return a.seeded && ts <= a.newest-a.window
}

// Newest returns the largest timestamp pushed since the last Reset, and false
// before any push.
func (a *TimeWindowedAverage) Newest() (int64, bool) {
	return a.newest, a.seeded
}

func (a *TimeWindowedAverage) evict() {
	cutoff := a.newest - a.window
	for a.head < len(a.buf) && a.buf[a.head].ts <= cutoff {
		a.sum -= a.buf[a.head].value
		a.head++
	}

	if a.head >= minCompact && a.head*2 >= len(a.buf) {
		n := copy(a.buf, a.buf[a.head:])
		a.buf = a.buf[:n]
		a.head = 0
		// Recompute from scratch so subtraction error cannot accumulate
		// over an unbounded stream.
		a.sum = 0
		for _, e := range a.buf {
			a.sum += e.value
		}
	}
}

// Average returns the mean of the retained observations, or 0 if none are
// retained.
func (a *TimeWindowedAverage) Average() float64 {
	n := len(a.buf) - a.head
	if n == 0 {
		return 0
	}
	return a.sum / float64(n)
}

// Len returns the number of retained observations.
func (a *TimeWindowedAverage) Len() int {
	return len(a.buf) - a.head
}

// Span returns the time between the oldest and newest retained observations
// in nanoseconds. It is less than the window, since every retained entry is
// later than newest-window.
func (a *TimeWindowedAverage) Span() int64 {
	if a.Len() == 0 {
		return 0
	}
	return a.buf[len(a.buf)-1].ts - a.buf[a.head].ts
}

// Reset discards all retained observations.
func (a *TimeWindowedAverage) Reset() {
	a.buf = a.buf[:0]
	a.head = 0
	a.sum = 0
	a.newest = 0
	a.seeded = false
}
