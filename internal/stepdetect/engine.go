package stepdetect

import (
	"fmt"
	"sync"

	"github.com/banshee-data/stride.report/internal/dsp"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/timeutil"
)

// Engine is the moving-average step detector. It owns its filters and
// accumulators exclusively; callers only see State snapshots.
//
// ProcessSample may be called from any goroutine but calls are serialised:
// each sample is processed as one critical section in arrival order.
type Engine struct {
	cfg Config

	mu        sync.Mutex
	short     *dsp.TimeWindowedAverage
	long      *dsp.TimeWindowedAverage
	power     dsp.CumulativePower
	crossover Crossover
	gate      Gate
	timer     *StrideTimer
	model     StrideLengthModel

	listeners  listenerRegistry
	dispatcher Dispatcher

	stateMu sync.RWMutex
	state   State
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the wall clock used to time strides.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) {
		e.timer = NewStrideTimer(c, e.cfg.MinStrideSeconds, e.cfg.MaxStrideSeconds)
	}
}

// WithStrideLengthModel replaces the default FrequencyModel with factor 1.
func WithStrideLengthModel(m StrideLengthModel) Option {
	return func(e *Engine) {
		if m != nil {
			e.model = m
		}
	}
}

// WithDispatcher replaces synchronous listener notification.
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

// New builds an engine. It fails with ErrInvalidWindowConfig or
// ErrInvalidConfig when cfg is unusable.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	short, err := dsp.NewTimeWindowedAverage(cfg.ShortWindowSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: short window: %v", ErrInvalidWindowConfig, err)
	}
	long, err := dsp.NewTimeWindowedAverage(cfg.LongWindowSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: long window: %v", ErrInvalidWindowConfig, err)
	}

	e := &Engine{
		cfg:        cfg,
		short:      short,
		long:       long,
		crossover:  NewCrossover(),
		gate:       NewGate(cfg),
		timer:      NewStrideTimer(timeutil.RealClock{}, cfg.MinStrideSeconds, cfg.MaxStrideSeconds),
		model:      NewFrequencyModel(1.0),
		dispatcher: &SyncDispatcher{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = State{PowerOutOfRange: true}
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// AddStepListener registers l and returns its registration ID. Listeners are
// notified in registration order. A nil listener is ignored and yields "".
func (e *Engine) AddStepListener(l Listener) string {
	return e.listeners.add(l)
}

// RemoveStepListener unregisters the listener with the given ID.
func (e *Engine) RemoveStepListener(id string) {
	e.listeners.remove(id)
}

// ListenerCount returns the number of registered listeners.
func (e *Engine) ListenerCount() int {
	return e.listeners.len()
}

// State returns a snapshot of the last processed sample. It is safe to call
// from a listener.
func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	st := e.state
	st.ListenerFailures = e.dispatcher.Failures()
	return st
}

// ProcessSample runs one sample through the pipeline. Non-finite values are
// counted and skipped.
func (e *Engine) ProcessSample(ts int64, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.State()
	st.Samples++
	st.Timestamp = ts

	if !finite(value) {
		st.RejectedSamples++
		e.publish(st)
		monitoring.Diagf("stepdetect: skipped non-finite sample %v at %d", value, ts)
		return
	}

	if newest, ok := e.short.Newest(); ok && e.clockRestarted(ts) {
		e.restart()
		st.ClockRestarts++
		monitoring.Logf("stepdetect: sensor clock went back from %d to %d, filters restarted", newest, ts)
	}

	if !e.short.Push(ts, value) {
		st.LateSamples++
		e.publish(st)
		monitoring.Diagf("stepdetect: skipped late sample at %d", ts)
		return
	}
	short := e.short.Average()
	e.long.Push(ts, short)
	long := e.long.Average()

	candidate := e.crossover.Update(short, long)

	e.power.Push(ts, short-long)
	power := e.power.Value()
	verdict := e.gate.Evaluate(power)

	st.Raw = value
	st.ShortAverage = short
	st.LongAverage = long
	st.Power = power
	st.StepDetected = candidate
	st.Gate = verdict
	st.PowerOutOfRange = !verdict.InRange()

	if !candidate {
		e.publish(st)
		return
	}

	st.Candidates++
	e.power.Reset()

	if !verdict.InRange() {
		e.publish(st)
		monitoring.Diagf("stepdetect: step rejected at %d: %s (power %.1f, range [%.1f, %.1f])",
			ts, verdict, power, e.gate.Low, e.gate.High)
		return
	}

	duration, stride := e.timer.OnAcceptedStep()
	st.StrideVerdict = stride
	if stride == StrideNoBaseline {
		st.StrideDuration = 0
	} else {
		st.StrideDuration = duration
	}
	if stride.Implausible() {
		e.publish(st)
		monitoring.Diagf("stepdetect: step rejected at %d: %v: %s (%.3fs, bounds [%.3f, %.3f])",
			ts, ErrImplausibleDuration, stride, duration, e.cfg.MinStrideSeconds, e.cfg.MaxStrideSeconds)
		return
	}

	length, err := e.model.Estimate(duration)
	if err != nil {
		e.publish(st)
		monitoring.Diagf("stepdetect: step rejected at %d: %v", ts, err)
		return
	}

	ev := StepEvent{
		Probability:  1.0,
		Duration:     duration,
		StrideLength: length,
		Timestamp:    ts,
	}
	st.Steps++
	st.LastStrideLength = length
	e.publish(st)

	e.dispatcher.Dispatch(e.listeners.snapshot(), ev)
}

// clockRestarted reports whether ts lies further behind the newest sample
// than either window reaches, which only a restarted sensor clock produces.
func (e *Engine) clockRestarted(ts int64) bool {
	return e.short.Late(ts) && e.long.Late(ts)
}

// restart clears all sample-time state. The stride timer runs on the wall
// clock and keeps its baseline.
func (e *Engine) restart() {
	e.short.Reset()
	e.long.Reset()
	e.power.Reset()
	e.crossover = NewCrossover()
}

func (e *Engine) publish(st State) {
	e.stateMu.Lock()
	e.state = st
	e.stateMu.Unlock()
}
