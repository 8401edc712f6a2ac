package stepdetect

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/stride.report/internal/monitoring"
)

// Dispatcher delivers a step event to a set of listeners.
type Dispatcher interface {
	// Dispatch delivers ev to every target in order. It must not retain or
	// modify targets after returning unless it copies them.
	Dispatch(targets []Target, ev StepEvent)
	// Failures returns the number of listener calls that panicked.
	Failures() uint64
}

// notify calls every target in order. A panicking listener is logged and
// counted; the remaining listeners are still called.
func notify(targets []Target, ev StepEvent, failures *atomic.Uint64) {
	for _, t := range targets {
		callListener(t, ev, failures)
	}
}

func callListener(t Target, ev StepEvent, failures *atomic.Uint64) {
	defer func() {
		if r := recover(); r != nil {
			failures.Add(1)
			err := fmt.Errorf("%w: listener %s: %v", ErrListenerFailure, t.ID, r)
			monitoring.Logf("stepdetect: %v", err)
		}
	}()
	t.Listener.OnStepEvent(ev)
}

// SyncDispatcher calls listeners on the caller's goroutine, inside the
// engine's per-sample critical section. A slow listener delays the sensor
// producer.
type SyncDispatcher struct {
	failures atomic.Uint64
}

// Dispatch notifies targets synchronously.
func (d *SyncDispatcher) Dispatch(targets []Target, ev StepEvent) {
	notify(targets, ev, &d.failures)
}

// Failures returns the number of listener panics.
func (d *SyncDispatcher) Failures() uint64 {
	return d.failures.Load()
}

// DefaultQueueSize is the AsyncDispatcher queue length used when none is
// given.
const DefaultQueueSize = 64

type dispatchJob struct {
	targets []Target
	ev      StepEvent
}

// AsyncDispatcher queues events and notifies listeners from a single worker
// goroutine, preserving event order. When the queue is full new events are
// dropped and counted rather than blocking the producer.
type AsyncDispatcher struct {
	queue chan dispatchJob
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	failures atomic.Uint64
	dropped  atomic.Uint64
}

// NewAsyncDispatcher starts a dispatcher with a queue of the given size.
func NewAsyncDispatcher(size int) *AsyncDispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	d := &AsyncDispatcher{
		queue: make(chan dispatchJob, size),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *AsyncDispatcher) run() {
	defer close(d.done)
	for job := range d.queue {
		notify(job.targets, job.ev, &d.failures)
	}
}

// Dispatch enqueues ev without blocking.
func (d *AsyncDispatcher) Dispatch(targets []Target, ev StepEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}
	select {
	case d.queue <- dispatchJob{targets: targets, ev: ev}:
	default:
		n := d.dropped.Add(1)
		monitoring.Logf("stepdetect: dispatch queue full, dropped %s (%d dropped so far)", ev, n)
	}
}

// Failures returns the number of listener panics.
func (d *AsyncDispatcher) Failures() uint64 {
	return d.failures.Load()
}

// Dropped returns the number of events discarded because the queue was full
// or the dispatcher was closed.
func (d *AsyncDispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops accepting events, delivers everything already queued and
// waits for the worker to exit.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}
