package serialmux

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeDetector struct {
	mu     sync.Mutex
	ts     []int64
	values []float64
}

func (f *fakeDetector) ProcessSample(ts int64, v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ts = append(f.ts, ts)
	f.values = append(f.values, v)
}

func (f *fakeDetector) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values)
}

type fakeRecorder struct {
	samples []RawSample
	err     error
}

func (f *fakeRecorder) RecordSample(s RawSample) error {
	if f.err != nil {
		return f.err
	}
	f.samples = append(f.samples, s)
	return nil
}

func TestPipeline_HandleLine(t *testing.T) {
	det := &fakeDetector{}
	rec := &fakeRecorder{}
	p := NewPipeline(AxisY, det)
	p.Recorder = rec

	lines := []string{
		"# header",
		"1000,0.1,0.2,9.8",
		`{"ts":2000,"x":0.3,"y":0.4,"z":9.7}`,
		`{"rate":100}`,
		"garbage",
	}
	for _, l := range lines {
		if err := p.HandleLine(l); err != nil {
			t.Fatalf("HandleLine(%q): %v", l, err)
		}
	}

	if len(det.values) != 2 || det.values[0] != 0.2 || det.values[1] != 0.4 {
		t.Errorf("detector got %v, want [0.2 0.4]", det.values)
	}
	if det.ts[1] != 2000 {
		t.Errorf("timestamp = %d, want 2000", det.ts[1])
	}
	if len(rec.samples) != 2 {
		t.Errorf("recorder got %d samples, want 2", len(rec.samples))
	}
	if got := p.DeviceState()["rate"]; got != float64(100) {
		t.Errorf("DeviceState rate = %v, want 100", got)
	}
	if p.Samples() != 2 {
		t.Errorf("Samples() = %d, want 2", p.Samples())
	}
}

func TestPipeline_MalformedSample(t *testing.T) {
	p := NewPipeline(AxisZ, &fakeDetector{})
	err := p.HandleLine("1000,0.1,oops,9.8")
	if !errors.Is(err, ErrMalformedSample) {
		t.Errorf("HandleLine error = %v, want ErrMalformedSample", err)
	}
	if p.Malformed() != 1 {
		t.Errorf("Malformed() = %d, want 1", p.Malformed())
	}
}

func TestPipeline_RecorderError(t *testing.T) {
	det := &fakeDetector{}
	p := NewPipeline(AxisZ, det)
	p.Recorder = &fakeRecorder{err: errors.New("disk full")}

	if err := p.HandleLine("1000,0,0,9.8"); err == nil {
		t.Error("expected recorder error")
	}
	if det.count() != 1 {
		t.Error("detector should still see the sample")
	}
}

func TestPipeline_RunUntilSubscriptionCloses(t *testing.T) {
	port := NewTestableSerialPort()
	port.BlockReads = true
	mux := NewSerialMux(port)
	det := &fakeDetector{}
	p := NewPipeline(AxisZ, det)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx, mux) }()

	// Wait for the pipeline to subscribe before feeding the port.
	for i := 0; ; i++ {
		mux.subscriberMu.Lock()
		n := len(mux.subscribers)
		mux.subscriberMu.Unlock()
		if n == 1 {
			break
		}
		if i > 1000 {
			t.Fatal("pipeline never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	go mux.Monitor(ctx)
	port.AddReadData([]byte("1000,0,0,9.8\n2000,0,0,9.9\n"))

	deadline := time.Now().Add(5 * time.Second)
	for det.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("detector saw %d samples, want 2", det.count())
		}
		time.Sleep(time.Millisecond)
	}

	mux.Close()
	select {
	case err := <-runDone:
		if err != nil {
			t.Errorf("Run() = %v, want nil after Close", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
