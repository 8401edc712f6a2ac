package serialmux

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	EventTypeSample  = "sample"
	EventTypeConfig  = "config"
	EventTypeComment = "comment"
	EventTypeUnknown = "unknown"
)

// ErrMalformedSample is returned for a line that looks like a sample but
// cannot be parsed as one.
var ErrMalformedSample = errors.New("malformed sample line")

// ClassifyPayload inspects a line from the sensor and returns an event type
// token. Sample lines are either CSV starting with a digit or JSON carrying
// a "ts" field; other JSON objects are device configuration responses.
func ClassifyPayload(payload string) string {
	p := strings.TrimSpace(payload)
	switch {
	case p == "":
		return EventTypeUnknown
	case strings.HasPrefix(p, "#"):
		return EventTypeComment
	case strings.HasPrefix(p, "{"):
		if strings.Contains(p, `"ts"`) {
			return EventTypeSample
		}
		return EventTypeConfig
	case p[0] >= '0' && p[0] <= '9', p[0] == '-':
		return EventTypeSample
	default:
		return EventTypeUnknown
	}
}

// RawSample is one three-axis accelerometer reading.
type RawSample struct {
	TimestampNanos int64   `json:"ts"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Z              float64 `json:"z"`
}

// ParseSampleLine parses "ts_nanos,x,y,z" or {"ts":..,"x":..,"y":..,"z":..}.
func ParseSampleLine(line string) (RawSample, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") {
		var s struct {
			TS *int64   `json:"ts"`
			X  *float64 `json:"x"`
			Y  *float64 `json:"y"`
			Z  *float64 `json:"z"`
		}
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return RawSample{}, fmt.Errorf("%w: %v", ErrMalformedSample, err)
		}
		if s.TS == nil || s.X == nil || s.Y == nil || s.Z == nil {
			return RawSample{}, fmt.Errorf("%w: missing field in %q", ErrMalformedSample, line)
		}
		return RawSample{TimestampNanos: *s.TS, X: *s.X, Y: *s.Y, Z: *s.Z}, nil
	}

	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return RawSample{}, fmt.Errorf("%w: want 4 fields, got %d in %q", ErrMalformedSample, len(fields), line)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return RawSample{}, fmt.Errorf("%w: timestamp: %v", ErrMalformedSample, err)
	}
	var xyz [3]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return RawSample{}, fmt.Errorf("%w: axis %d: %v", ErrMalformedSample, i, err)
		}
		xyz[i] = v
	}
	return RawSample{TimestampNanos: ts, X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// FormatSampleLine renders s in the CSV form accepted by ParseSampleLine.
func FormatSampleLine(s RawSample) string {
	return fmt.Sprintf("%d,%s,%s,%s", s.TimestampNanos,
		strconv.FormatFloat(s.X, 'g', -1, 64),
		strconv.FormatFloat(s.Y, 'g', -1, 64),
		strconv.FormatFloat(s.Z, 'g', -1, 64))
}

// Axis selects which accelerometer component feeds the detector.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// ParseAxis accepts x, y or z in any case.
func ParseAxis(s string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case AxisX, AxisY, AxisZ:
		return a, nil
	default:
		return "", fmt.Errorf("unknown axis %q: expected x, y or z", s)
	}
}

// Value returns the component of s selected by a. Unknown axes select Z.
func (a Axis) Value(s RawSample) float64 {
	switch a {
	case AxisX:
		return s.X
	case AxisY:
		return s.Y
	default:
		return s.Z
	}
}
