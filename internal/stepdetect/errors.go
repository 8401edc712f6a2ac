package stepdetect

import "errors"

var (
	// ErrInvalidWindowConfig is returned when a moving-average window is not a
	// positive, finite duration. Construction fails.
	ErrInvalidWindowConfig = errors.New("invalid window configuration")
	// ErrInvalidConfig is returned for any other unusable configuration value.
	ErrInvalidConfig = errors.New("invalid detector configuration")
	// ErrNotComputable is returned by a stride length model that cannot
	// produce a length for the given input. The engine suppresses the event.
	ErrNotComputable = errors.New("stride length not computable")
	// ErrImplausibleDuration marks a stride duration outside the plausibility
	// bounds. It is only ever logged.
	ErrImplausibleDuration = errors.New("implausible stride duration")
	// ErrListenerFailure wraps a panic raised by a step listener.
	ErrListenerFailure = errors.New("step listener failed")
	// ErrUnknownDetector is returned by NewDetector for an unknown name.
	ErrUnknownDetector = errors.New("unknown step detector")
)
