package stepdetect

import (
	"fmt"
	"sync/atomic"
)

// Detector names accepted by NewDetector.
const (
	DetectorMovingAverage = "moving_average"
	DetectorNull          = "null"
)

// Detector is the sample-in, events-out surface shared by all detectors.
type Detector interface {
	ProcessSample(ts int64, value float64)
	AddStepListener(l Listener) string
	RemoveStepListener(id string)
}

var (
	_ Detector = (*Engine)(nil)
	_ Detector = (*NullDetector)(nil)
)

// NewDetector builds a detector by name.
func NewDetector(name string, cfg Config, opts ...Option) (Detector, error) {
	switch name {
	case "", DetectorMovingAverage:
		e, err := New(cfg, opts...)
		if err != nil {
			return nil, err
		}
		return e, nil
	case DetectorNull:
		return &NullDetector{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, name)
	}
}

// NullDetector accepts samples and listeners but never detects a step.
type NullDetector struct {
	cfg       Config
	listeners listenerRegistry
	samples   atomic.Uint64
}

// ProcessSample counts and discards the sample.
func (d *NullDetector) ProcessSample(int64, float64) {
	d.samples.Add(1)
}

// Samples returns the number of samples received.
func (d *NullDetector) Samples() uint64 {
	return d.samples.Load()
}

// State reports the sample count; every other field stays zero.
func (d *NullDetector) State() State {
	return State{Samples: d.samples.Load()}
}

// Config returns the configuration passed to NewDetector.
func (d *NullDetector) Config() Config {
	return d.cfg
}

// AddStepListener registers l; it will never be called.
func (d *NullDetector) AddStepListener(l Listener) string {
	return d.listeners.add(l)
}

// RemoveStepListener unregisters a listener.
func (d *NullDetector) RemoveStepListener(id string) {
	d.listeners.remove(id)
}
