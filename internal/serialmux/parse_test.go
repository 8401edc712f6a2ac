package serialmux

import (
	"errors"
	"testing"
)

func TestClassifyPayload(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"1000,0.1,0.2,9.8", EventTypeSample},
		{"-5,0,0,0", EventTypeSample},
		{`{"ts":1000,"x":0,"y":0,"z":9.8}`, EventTypeSample},
		{`{"rate":100,"range":"4G"}`, EventTypeConfig},
		{"# bridge v2.1", EventTypeComment},
		{"", EventTypeUnknown},
		{"OK", EventTypeUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyPayload(tt.payload); got != tt.want {
			t.Errorf("ClassifyPayload(%q) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}

func TestParseSampleLine(t *testing.T) {
	want := RawSample{TimestampNanos: 1500000000, X: 0.12, Y: -0.5, Z: 9.81}

	for _, line := range []string{
		"1500000000,0.12,-0.5,9.81",
		" 1500000000, 0.12 , -0.5,9.81 ",
		`{"ts":1500000000,"x":0.12,"y":-0.5,"z":9.81}`,
	} {
		got, err := ParseSampleLine(line)
		if err != nil {
			t.Errorf("ParseSampleLine(%q): %v", line, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSampleLine(%q) = %+v, want %+v", line, got, want)
		}
	}
}

func TestParseSampleLineErrors(t *testing.T) {
	for _, line := range []string{
		"1000,0,0",
		"1000,0,0,0,0",
		"abc,0,0,0",
		"1000,x,0,0",
		`{"ts":1000,"x":0,"y":0}`,
		`{"ts":"soon","x":0,"y":0,"z":0}`,
		`{"ts":1000`,
	} {
		if _, err := ParseSampleLine(line); !errors.Is(err, ErrMalformedSample) {
			t.Errorf("ParseSampleLine(%q) error = %v, want ErrMalformedSample", line, err)
		}
	}
}

func TestFormatSampleLineRoundTrip(t *testing.T) {
	s := RawSample{TimestampNanos: 42, X: 0.1, Y: 1e-9, Z: -9.80665}
	got, err := ParseSampleLine(FormatSampleLine(s))
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Errorf("got %+v, want %+v", got, s)
	}
}

func TestAxis(t *testing.T) {
	s := RawSample{X: 1, Y: 2, Z: 3}
	for in, want := range map[string]float64{"x": 1, "Y": 2, " z ": 3} {
		a, err := ParseAxis(in)
		if err != nil {
			t.Fatalf("ParseAxis(%q): %v", in, err)
		}
		if got := a.Value(s); got != want {
			t.Errorf("Axis(%q).Value = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseAxis("w"); err == nil {
		t.Error("expected error for unknown axis")
	}
	if got := Axis("").Value(s); got != 3 {
		t.Errorf("zero Axis should select z, got %v", got)
	}
}
