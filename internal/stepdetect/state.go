package stepdetect

// State is a read-only snapshot of the engine after the last sample. It is
// meant for diagnostic display, not for control decisions.
type State struct {
	// Timestamp is the sensor timestamp of the last sample (ns).
	Timestamp int64 `json:"timestamp_nanos"`

	Raw          float64 `json:"raw"`
	ShortAverage float64 `json:"short_average"`
	LongAverage  float64 `json:"long_average"`
	// Power is the cumulative power before any reset caused by this sample.
	Power float64 `json:"power"`

	// StepDetected is true when the last sample raised a candidate step.
	StepDetected    bool       `json:"step_detected"`
	PowerOutOfRange bool       `json:"power_out_of_range"`
	Gate            GateResult `json:"gate"`

	// StrideDuration is the last measured stride in seconds, 0 until two
	// steps have been accepted.
	StrideDuration   float64       `json:"stride_duration_seconds"`
	StrideVerdict    StrideVerdict `json:"stride_verdict"`
	LastStrideLength float64       `json:"last_stride_length_meters"`

	Samples         uint64 `json:"samples"`
	RejectedSamples uint64 `json:"rejected_samples"`
	// LateSamples arrived out of order and already outside the short window.
	LateSamples uint64 `json:"late_samples"`
	// ClockRestarts counts backwards timestamp jumps beyond both windows,
	// after which the filters start over.
	ClockRestarts uint64 `json:"clock_restarts"`

	Candidates       uint64 `json:"candidates"`
	Steps            uint64 `json:"steps"`
	ListenerFailures uint64 `json:"listener_failures"`
}
