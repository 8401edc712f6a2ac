package dsp

import "sync"

// CumulativePower accumulates the squared values pushed since the last reset.
// It never evicts: the value is the signal energy released since the last
// call to Reset, deliberately not normalised by the sample count.
//
// Push, Value and Reset may be called concurrently.
type CumulativePower struct {
	mu    sync.Mutex
	sum   float64
	count int
}

// Push adds value² to the running sum. The timestamp is accepted for symmetry
// with the windowed filters and is not used.
func (p *CumulativePower) Push(_ int64, value float64) {
	p.mu.Lock()
	p.sum += value * value
	p.count++
	p.mu.Unlock()
}

// Value returns the accumulated power.
func (p *CumulativePower) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sum
}

// Count returns the number of values pushed since the last reset.
func (p *CumulativePower) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Reset returns the accumulator to zero.
func (p *CumulativePower) Reset() {
	p.mu.Lock()
	p.sum = 0
	p.count = 0
	p.mu.Unlock()
}
