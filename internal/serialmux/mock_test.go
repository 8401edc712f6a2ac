package serialmux

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadSamples(t *testing.T) {
	input := strings.Join([]string{
		"# captured 2026-05-04",
		"ts,x,y,z",
		"",
		"1000,0,0,9.8",
		"2000,0.1,0,9.9",
	}, "\n")
	got, err := ReadSamples(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].X != 0.1 {
		t.Errorf("ReadSamples() = %+v", got)
	}

	if _, err := ReadSamples(strings.NewReader("1000,0,0\n")); err == nil {
		t.Error("expected error for short line")
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk.csv")
	if err := os.WriteFile(path, []byte("ts,x,y,z\n1,0,0,9.8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFixture(path)
	if err != nil || len(got) != 1 {
		t.Fatalf("LoadFixture() = %v, %v", got, err)
	}
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing fixture")
	}
}

func TestSyntheticWalk(t *testing.T) {
	s := SyntheticWalk(2*time.Second, 100, 2, 3)
	if len(s) != 200 {
		t.Fatalf("len = %d, want 200", len(s))
	}
	if s[1].TimestampNanos != int64(10*time.Millisecond) {
		t.Errorf("sample spacing = %d", s[1].TimestampNanos)
	}
	for i := 1; i < len(s); i++ {
		if s[i].TimestampNanos <= s[i-1].TimestampNanos {
			t.Fatalf("timestamps not increasing at %d", i)
		}
	}
}

func TestReplayInterval(t *testing.T) {
	at := func(ms ...int64) []RawSample {
		s := make([]RawSample, len(ms))
		for i, v := range ms {
			s[i].TimestampNanos = v * int64(time.Millisecond)
		}
		return s
	}
	const fallback = 10 * time.Millisecond

	for _, tt := range []struct {
		name    string
		samples []RawSample
		want    time.Duration
	}{
		{"50 Hz", at(0, 20, 40, 60, 80), 20 * time.Millisecond},
		{"jittered 25 Hz with a dropout", at(0, 40, 79, 121, 160, 400), 40 * time.Millisecond},
		{"even gap count", at(0, 4, 10, 20, 30), 8 * time.Millisecond},
		{"single sample", at(5), fallback},
		{"empty", nil, fallback},
		{"repeated timestamps", at(7, 7, 7), fallback},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReplayInterval(tt.samples, fallback); got != tt.want {
				t.Errorf("ReplayInterval() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := ReplayInterval(SyntheticWalk(time.Second, 200, 2, 1), fallback); got != 5*time.Millisecond {
		t.Errorf("synthetic 200 Hz walk replays every %v", got)
	}
}

func TestNewMockSerialMux(t *testing.T) {
	lines := []RawSample{
		{TimestampNanos: 0, Z: 9.8},
		{TimestampNanos: 1000, Z: 9.9},
	}
	mux := NewMockSerialMux(lines, time.Millisecond)
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	var got []RawSample
	timeout := time.After(5 * time.Second)
	for len(got) < 5 {
		select {
		case line := <-ch:
			s, err := ParseSampleLine(line)
			if err != nil {
				t.Fatal(err)
			}
			got = append(got, s)
		case <-timeout:
			t.Fatalf("only received %d lines", len(got))
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].TimestampNanos <= got[i-1].TimestampNanos {
			t.Errorf("timestamps must keep increasing across loops: %+v", got)
		}
	}

	if err := mux.Initialize(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mux.port.Commands(), "STREAM=ON") {
		t.Error("mock port should record commands")
	}
	cancel()
	mux.Close()
}
