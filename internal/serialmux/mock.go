package serialmux

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"sync"
	"time"
)

// MockSerialPort replays canned sensor output and records commands.
type MockSerialPort struct {
	io.Reader
	closer io.Closer

	mu       sync.Mutex
	commands bytes.Buffer
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands.Write(p)
}

// Commands returns everything written to the port.
func (m *MockSerialPort) Commands() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands.String()
}

func (m *MockSerialPort) Close() error {
	return m.closer.Close()
}

// NewMockSerialMux returns a mux whose port emits the given sample lines,
// one every interval, looping forever. Timestamps are rewritten so that they
// keep increasing across loops.
func NewMockSerialMux(lines []RawSample, interval time.Duration) *SerialMux[*MockSerialPort] {
	r, w := io.Pipe()
	mockPort := &MockSerialPort{Reader: r, closer: r}

	go func() {
		defer w.Close()
		if len(lines) == 0 {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		span := lines[len(lines)-1].TimestampNanos - lines[0].TimestampNanos + int64(interval)
		var offset int64
		for {
			for _, s := range lines {
				<-ticker.C
				s.TimestampNanos += offset
				if _, err := io.WriteString(w, FormatSampleLine(s)+"\n"); err != nil {
					return
				}
			}
			offset += span
		}
	}()

	return NewSerialMux(mockPort)
}

// ReplayInterval returns the median spacing between consecutive sample
// timestamps, so a fixture replays at the rate it was recorded. It returns
// fallback when there are fewer than two samples or the median is not
// positive.
func ReplayInterval(samples []RawSample, fallback time.Duration) time.Duration {
	if len(samples) < 2 {
		return fallback
	}
	gaps := make([]int64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		gaps = append(gaps, samples[i].TimestampNanos-samples[i-1].TimestampNanos)
	}
	slices.Sort(gaps)
	median := gaps[len(gaps)/2]
	if len(gaps)%2 == 0 {
		median = (gaps[len(gaps)/2-1] + median) / 2
	}
	if median <= 0 {
		return fallback
	}
	return time.Duration(median)
}

// LoadFixture reads sample lines from a file. Blank lines, comments and a
// header row starting with a letter are skipped.
func LoadFixture(path string) ([]RawSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return ReadSamples(f)
}

// ReadSamples parses sample lines from r, skipping anything that is not
// classified as a sample.
func ReadSamples(r io.Reader) ([]RawSample, error) {
	var out []RawSample
	scan := bufio.NewScanner(r)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := scan.Text()
		if ClassifyPayload(line) != EventTypeSample {
			continue
		}
		s, err := ParseSampleLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, s)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SyntheticWalk generates a walking-like signal on the Z axis: gravity plus
// a sinusoid at cadenceHz with the given amplitude, sampled at rateHz for
// the given duration.
func SyntheticWalk(duration time.Duration, rateHz, cadenceHz, amplitude float64) []RawSample {
	n := int(duration.Seconds() * rateHz)
	step := float64(time.Second) / rateHz
	out := make([]RawSample, n)
	for i := range out {
		ts := int64(float64(i) * step)
		t := float64(ts) / float64(time.Second)
		out[i] = RawSample{
			TimestampNanos: ts,
			X:              0.05 * math.Sin(2*math.Pi*0.3*t),
			Y:              0.02,
			Z:              9.81 + amplitude*math.Sin(2*math.Pi*cadenceHz*t),
		}
	}
	return out
}

// TestableSerialPort implements SerialPorter with configurable behaviour for
// tests: buffered reads, captured writes, injected errors.
type TestableSerialPort struct {
	mu sync.Mutex

	ReadBuffer  *bytes.Buffer
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error
	// WriteError is returned by the next Write call if set
	WriteError error
	// CloseError is returned by Close if set
	CloseError error

	Closed     bool
	WriteCalls int

	// BlockReads causes Read to block until data is added or Close is called
	BlockReads bool

	readCond *sync.Cond
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	tsp := &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
	tsp.readCond = sync.NewCond(&tsp.mu)
	return tsp
}

func (t *TestableSerialPort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	if t.BlockReads {
		for !t.Closed && t.ReadBuffer.Len() == 0 {
			t.readCond.Wait()
		}
	}
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	return t.ReadBuffer.Read(p)
}

func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	return t.WriteBuffer.Write(p)
}

func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	t.readCond.Broadcast()
	return t.CloseError
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
	t.readCond.Signal()
}

// GetWrittenData returns all data written to the port.
func (t *TestableSerialPort) GetWrittenData() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.WriteBuffer.String()
}
