package testutil

import (
	"math"
	"net/http"
	"testing"
	"time"
)

type sink struct {
	ts     []int64
	values []float64
}

func (s *sink) ProcessSample(ts int64, v float64) {
	s.ts = append(s.ts, ts)
	s.values = append(s.values, v)
}

type clock struct{ set []time.Time }

func (c *clock) Set(t time.Time) { c.set = append(c.set, t) }

func TestFeedSine(t *testing.T) {
	s := &sink{}
	c := &clock{}
	FeedSine(s, c, time.Second, 2*time.Second, 3)

	if len(s.ts) != 100 {
		t.Fatalf("got %d samples, want 100", len(s.ts))
	}
	if s.ts[0] != int64(time.Second) {
		t.Errorf("first timestamp = %d, want %d", s.ts[0], int64(time.Second))
	}
	if got := c.set[1].Sub(Epoch); got != time.Second+SampleInterval {
		t.Errorf("clock at second sample = %v, want %v", got, time.Second+SampleInterval)
	}
	// Quarter period of a 2Hz sine is 125ms: the peak.
	if got := s.values[12]; math.Abs(got-Sine(1120*time.Millisecond, 3)) > 1e-12 {
		t.Errorf("value mismatch: %v", got)
	}
	if got := Sine(125*time.Millisecond, 3); math.Abs(got-3) > 1e-12 {
		t.Errorf("Sine at peak = %v, want 3", got)
	}
}

func TestFeedSineWithoutClock(t *testing.T) {
	s := &sink{}
	FeedSine(s, nil, 0, 50*time.Millisecond, 1)
	if len(s.ts) != 5 {
		t.Errorf("got %d samples, want 5", len(s.ts))
	}
}

func TestGet(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	AssertStatusCode(t, Get(h, "/ok").Code, http.StatusAccepted)
	AssertStatusCode(t, Get(h, "/missing").Code, http.StatusNotFound)
}
