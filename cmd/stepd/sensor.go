package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/stride.report/internal/api"
	"github.com/banshee-data/stride.report/internal/config"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/serialmux"
	"github.com/banshee-data/stride.report/internal/stepdetect"
)

// Synthetic walk used in dev mode when no fixture is given: 20s of 2Hz
// cadence at 100Hz, which the default tuning accepts.
const (
	devSampleRate = 100.0
	devCadence    = 2.0
	devAmplitude  = 5.0
	devDuration   = 20 * time.Second
)

type sensorFlags struct {
	disabled      bool
	dev           bool
	fixture       string
	port          string
	serialOptions string
}

func parseSerialOptions(s string) (serialmux.PortOptions, error) {
	var opts serialmux.PortOptions
	if strings.TrimSpace(s) != "" {
		if err := json.Unmarshal([]byte(s), &opts); err != nil {
			return opts, fmt.Errorf("invalid serial options: %w", err)
		}
	}
	return opts.Normalize()
}

// newSensorMux picks the sample source: nothing, a replayed fixture or
// synthetic walk, or the real serial port.
func newSensorMux(f sensorFlags) (serialmux.SerialMuxInterface, error) {
	switch {
	case f.disabled:
		return serialmux.NewDisabledSerialMux(), nil
	case f.dev:
		var samples []serialmux.RawSample
		if f.fixture == "" {
			samples = serialmux.SyntheticWalk(devDuration, devSampleRate, devCadence, devAmplitude)
		} else {
			var err error
			if samples, err = serialmux.LoadFixture(f.fixture); err != nil {
				return nil, fmt.Errorf("failed to load fixture: %w", err)
			}
		}
		interval := serialmux.ReplayInterval(samples, time.Second/time.Duration(devSampleRate))
		return serialmux.NewMockSerialMux(samples, interval), nil
	default:
		if f.port == "" {
			return nil, fmt.Errorf("serial port is required")
		}
		opts, err := parseSerialOptions(f.serialOptions)
		if err != nil {
			return nil, err
		}
		m, err := serialmux.NewRealSerialMux(f.port, opts)
		if err != nil {
			return nil, err
		}
		monitoring.Logf("sensor: opened %s at %s", f.port, opts)
		return m, nil
	}
}

// detector is a step detector the API can inspect.
type detector interface {
	stepdetect.Detector
	api.Detector
}

// newDetector builds the named detector from the tuning config. The returned
// dispatcher must be closed when it is asynchronous.
func newDetector(name string, tuning *config.TuningConfig) (detector, stepdetect.Dispatcher, error) {
	dispatcher := tuning.NewDispatcher()
	d, err := stepdetect.NewDetector(name, tuning.DetectorConfig(),
		stepdetect.WithStrideLengthModel(tuning.StrideLengthModel()),
		stepdetect.WithDispatcher(dispatcher),
	)
	if err != nil {
		closeDispatcher(dispatcher)
		return nil, nil, err
	}
	det, ok := d.(detector)
	if !ok {
		closeDispatcher(dispatcher)
		return nil, nil, fmt.Errorf("detector %q does not expose state", name)
	}
	return det, dispatcher, nil
}

func closeDispatcher(d stepdetect.Dispatcher) {
	if a, ok := d.(*stepdetect.AsyncDispatcher); ok {
		a.Close()
	}
}
