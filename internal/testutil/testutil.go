// Package testutil provides shared test helpers: a synthetic walking signal
// and small HTTP assertions.
package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Epoch is the wall-clock origin used by tests that drive a mock clock from
// sample time.
var Epoch = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// Walk defaults: 100Hz samples of a 2Hz cadence, one rising crossover every
// 0.5s.
const (
	SampleInterval = 10 * time.Millisecond
	CadenceHz      = 2.0
)

// SampleSink consumes samples; the step detectors implement it.
type SampleSink interface {
	ProcessSample(ts int64, value float64)
}

// ClockSetter is a mock clock that can be moved to a given time.
type ClockSetter interface {
	Set(t time.Time)
}

// Sine returns amp*sin(2*pi*CadenceHz*t).
func Sine(t time.Duration, amp float64) float64 {
	return amp * math.Sin(2*math.Pi*CadenceHz*t.Seconds())
}

// FeedSine pushes Sine samples for t in [from, to) at SampleInterval. When
// clock is not nil it is moved to Epoch+t before each sample, keeping wall
// time in lock step with sample time.
func FeedSine(sink SampleSink, clock ClockSetter, from, to time.Duration, amp float64) {
	for t := from; t < to; t += SampleInterval {
		if clock != nil {
			clock.Set(Epoch.Add(t))
		}
		sink.ProcessSample(int64(t), Sine(t, amp))
	}
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// Get serves a GET for path on h and returns the recorded response.
func Get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
