package serialmux

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/stride.report/internal/monitoring"
)

// SampleProcessor consumes the selected axis of each sample. The step
// detector implements it.
type SampleProcessor interface {
	ProcessSample(ts int64, value float64)
}

// SampleRecorder persists raw samples, typically into a capture session.
type SampleRecorder interface {
	RecordSample(s RawSample) error
}

// Pipeline routes sensor lines: samples go to the detector (and the
// recorder when set), configuration responses update DeviceState.
type Pipeline struct {
	Axis     Axis
	Detector SampleProcessor
	Recorder SampleRecorder

	mu          sync.Mutex
	deviceState map[string]any

	samples   atomic.Uint64
	malformed atomic.Uint64
}

// NewPipeline returns a pipeline feeding axis of every sample to d.
func NewPipeline(axis Axis, d SampleProcessor) *Pipeline {
	return &Pipeline{Axis: axis, Detector: d}
}

// HandleLine dispatches one sensor line.
func (p *Pipeline) HandleLine(payload string) error {
	switch ClassifyPayload(payload) {
	case EventTypeSample:
		if err := p.handleSample(payload); err != nil {
			return fmt.Errorf("failed to handle sample: %w", err)
		}
	case EventTypeConfig:
		if err := p.handleConfigResponse(payload); err != nil {
			return fmt.Errorf("failed to handle config response: %w", err)
		}
	case EventTypeComment:
	default:
		monitoring.Logf("serialmux: unknown line: %q", payload)
	}
	return nil
}

func (p *Pipeline) handleSample(payload string) error {
	s, err := ParseSampleLine(payload)
	if err != nil {
		p.malformed.Add(1)
		return err
	}
	p.samples.Add(1)
	if p.Detector != nil {
		p.Detector.ProcessSample(s.TimestampNanos, p.Axis.Value(s))
	}
	if p.Recorder != nil {
		if err := p.Recorder.RecordSample(s); err != nil {
			return fmt.Errorf("record sample: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) handleConfigResponse(payload string) error {
	var values map[string]any
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	p.mu.Lock()
	if p.deviceState == nil {
		p.deviceState = make(map[string]any)
	}
	for k, v := range values {
		p.deviceState[k] = v
	}
	p.mu.Unlock()

	monitoring.Logf("serialmux: config line: %s", payload)
	return nil
}

// DeviceState returns a copy of the configuration values reported by the
// sensor so far.
func (p *Pipeline) DeviceState() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]any, len(p.deviceState))
	for k, v := range p.deviceState {
		out[k] = v
	}
	return out
}

// Samples returns the number of sample lines parsed.
func (p *Pipeline) Samples() uint64 { return p.samples.Load() }

// Malformed returns the number of sample lines that failed to parse.
func (p *Pipeline) Malformed() uint64 { return p.malformed.Load() }

// Run subscribes to mux and handles lines until ctx is done or the
// subscription is closed. Line errors are logged, not returned.
func (p *Pipeline) Run(ctx context.Context, mux SerialMuxInterface) error {
	id, c := mux.Subscribe()
	defer mux.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-c:
			if !ok {
				return nil
			}
			if err := p.HandleLine(line); err != nil {
				monitoring.Logf("serialmux: %v", err)
			}
		}
	}
}
