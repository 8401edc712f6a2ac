package stepdetect

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// StepEvent describes one accepted step. It is passed to every listener by
// value.
type StepEvent struct {
	// Probability is fixed at 1.0; it is reserved for confidence scoring.
	Probability float64 `json:"probability"`
	// Duration is the stride duration in seconds.
	Duration float64 `json:"duration_seconds"`
	// StrideLength is the estimated stride length in meters.
	StrideLength float64 `json:"stride_length_meters"`
	// Timestamp is the sensor timestamp (ns) of the sample that completed
	// the step.
	Timestamp int64 `json:"timestamp_nanos"`
}

func (e StepEvent) String() string {
	return fmt.Sprintf("StepEvent(cert=%g, dur=%.3fs, len=%.3fm)", e.Probability, e.Duration, e.StrideLength)
}

// Listener receives step events.
type Listener interface {
	OnStepEvent(StepEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(StepEvent)

// OnStepEvent calls f(ev).
func (f ListenerFunc) OnStepEvent(ev StepEvent) { f(ev) }

// Target is a registered listener with its registration ID.
type Target struct {
	ID       string
	Listener Listener
}

// listenerRegistry is an ordered set of listeners. It only holds references;
// callers own the listener lifetimes and remove them by ID.
type listenerRegistry struct {
	mu      sync.Mutex
	targets []Target
}

func (r *listenerRegistry) add(l Listener) string {
	if l == nil {
		return ""
	}
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, Target{ID: id, Listener: l})
	return id
}

func (r *listenerRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.targets {
		if t.ID == id {
			r.targets = append(r.targets[:i:i], r.targets[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns the current targets in registration order. The returned
// slice is never modified by the registry.
func (r *listenerRegistry) snapshot() []Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targets
}

func (r *listenerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.targets)
}
