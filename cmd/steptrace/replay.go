package main

import (
	"time"

	"github.com/banshee-data/stride.report/internal/config"
	"github.com/banshee-data/stride.report/internal/serialmux"
	"github.com/banshee-data/stride.report/internal/stepdetect"
	"github.com/banshee-data/stride.report/internal/timeutil"
)

// replayEpoch anchors sensor time on the replay clock.
var replayEpoch = time.Unix(0, 0).UTC()

// Trace is the outcome of replaying a recording through the detector.
type Trace struct {
	Events []stepdetect.StepEvent
	// States holds one snapshot per sample when recorded.
	States []stepdetect.State
	Final  stepdetect.State
}

// Replay feeds samples through a fresh engine built from tuning. The stride
// clock follows sample timestamps, so results match live processing at the
// sensor rate regardless of how fast the replay runs.
func Replay(samples []serialmux.RawSample, axis serialmux.Axis, tuning *config.TuningConfig, keepStates bool) (*Trace, error) {
	clock := timeutil.NewMockClock(replayEpoch)
	engine, err := stepdetect.New(tuning.DetectorConfig(),
		stepdetect.WithClock(clock),
		stepdetect.WithStrideLengthModel(tuning.StrideLengthModel()),
	)
	if err != nil {
		return nil, err
	}

	tr := &Trace{}
	engine.AddStepListener(stepdetect.ListenerFunc(func(ev stepdetect.StepEvent) {
		tr.Events = append(tr.Events, ev)
	}))
	if keepStates {
		tr.States = make([]stepdetect.State, 0, len(samples))
	}

	for _, s := range samples {
		clock.Set(replayEpoch.Add(time.Duration(s.TimestampNanos)))
		engine.ProcessSample(s.TimestampNanos, axis.Value(s))
		if keepStates {
			tr.States = append(tr.States, engine.State())
		}
	}
	tr.Final = engine.State()
	return tr, nil
}
