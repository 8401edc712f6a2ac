package api

import (
	"context"
	"sync"
	"time"

	"github.com/banshee-data/stride.report/internal/stepdetect"
	"github.com/banshee-data/stride.report/internal/timeutil"
)

// History defaults: one minute of snapshots at 20Hz.
const (
	DefaultHistorySize     = 1200
	DefaultHistoryInterval = 50 * time.Millisecond
)

// History is a bounded ring of engine snapshots, oldest first.
type History struct {
	mu   sync.Mutex
	buf  []stepdetect.State
	next int
	full bool
}

// NewHistory returns a ring holding at most size snapshots.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{buf: make([]stepdetect.State, size)}
}

// Add appends st, overwriting the oldest snapshot when full.
func (h *History) Add(st stepdetect.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = st
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
}

// Len returns the number of snapshots held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// Snapshots returns a copy of the held snapshots, oldest first.
func (h *History) Snapshots() []stepdetect.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		return append([]stepdetect.State(nil), h.buf[:h.next]...)
	}
	out := make([]stepdetect.State, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

// Sampler copies engine snapshots into a History on a ticker.
type Sampler struct {
	Source   interface{ State() stepdetect.State }
	History  *History
	Interval time.Duration
	Clock    timeutil.Clock

	lastSamples uint64
}

// Sample records the current snapshot unless no sample arrived since the
// previous call. It reports whether a snapshot was added.
func (s *Sampler) Sample() bool {
	st := s.Source.State()
	if st.Samples == 0 || st.Samples == s.lastSamples {
		return false
	}
	s.lastSamples = st.Samples
	s.History.Add(st)
	return true
}

// Run samples until ctx is done.
func (s *Sampler) Run(ctx context.Context) error {
	clock := s.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultHistoryInterval
	}

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			s.Sample()
		}
	}
}
