package main

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/stride.report/internal/stepdetect"
	"github.com/banshee-data/stride.report/internal/units"
)

// Summary describes the accepted steps of a trace.
type Summary struct {
	Steps              int     `json:"steps"`
	MeanDuration       float64 `json:"mean_duration_seconds"`
	StdDevDuration     float64 `json:"stddev_duration_seconds"`
	MedianDuration     float64 `json:"median_duration_seconds"`
	CadencePerMinute   float64 `json:"cadence_steps_per_minute"`
	MeanStrideLength   float64 `json:"mean_stride_length_meters"`
	Distance           float64 `json:"distance_meters"`
	MeanSpeed          float64 `json:"mean_speed_mps"`
	SamplesProcessed   uint64  `json:"samples"`
	SamplesRejected    uint64  `json:"rejected_samples"`
	CandidatesRejected uint64  `json:"candidates_rejected"`
}

// Summarize computes step statistics. Statistics are zero without events.
func Summarize(tr *Trace) Summary {
	s := Summary{
		Steps:            len(tr.Events),
		SamplesProcessed: tr.Final.Samples,
		SamplesRejected:  tr.Final.RejectedSamples,
	}
	if tr.Final.Candidates > tr.Final.Steps {
		s.CandidatesRejected = tr.Final.Candidates - tr.Final.Steps
	}
	if len(tr.Events) == 0 {
		return s
	}

	durations := make([]float64, len(tr.Events))
	lengths := make([]float64, len(tr.Events))
	var totalTime float64
	for i, ev := range tr.Events {
		durations[i] = ev.Duration
		lengths[i] = ev.StrideLength
		s.Distance += ev.StrideLength
		totalTime += ev.Duration
	}

	s.MeanDuration, s.StdDevDuration = stat.MeanStdDev(durations, nil)
	if len(durations) < 2 {
		s.StdDevDuration = 0
	}
	sorted := append([]float64(nil), durations...)
	sort.Float64s(sorted)
	s.MedianDuration = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.MeanStrideLength = stat.Mean(lengths, nil)
	if s.MeanDuration > 0 {
		s.CadencePerMinute = 60 / s.MeanDuration
	}
	s.MeanSpeed = units.WalkingSpeed(s.Distance, totalTime)
	return s
}

// WriteSummary prints s for the terminal in the given display units.
func WriteSummary(w io.Writer, s Summary, speedUnit, lengthUnit string) {
	fmt.Fprintf(w, "samples:      %d (%d rejected)\n", s.SamplesProcessed, s.SamplesRejected)
	fmt.Fprintf(w, "steps:        %d (%d candidates rejected)\n", s.Steps, s.CandidatesRejected)
	if s.Steps == 0 {
		return
	}
	fmt.Fprintf(w, "stride:       %.3fs mean, %.3fs median, %.3fs stddev\n", s.MeanDuration, s.MedianDuration, s.StdDevDuration)
	fmt.Fprintf(w, "cadence:      %.1f steps/min\n", s.CadencePerMinute)
	fmt.Fprintf(w, "stride len:   %s mean\n", units.FormatLength(s.MeanStrideLength, lengthUnit))
	fmt.Fprintf(w, "distance:     %s\n", units.FormatLength(s.Distance, lengthUnit))
	fmt.Fprintf(w, "speed:        %s\n", units.FormatSpeed(s.MeanSpeed, speedUnit))
}

// WriteEvents prints one line per step with its sensor time.
func WriteEvents(w io.Writer, events []stepdetect.StepEvent) {
	if len(events) == 0 {
		return
	}
	t0 := events[0].Timestamp
	for i, ev := range events {
		fmt.Fprintf(w, "%4d  t=%8.3fs  %s\n", i+1, float64(ev.Timestamp-t0)/1e9, ev)
	}
}
