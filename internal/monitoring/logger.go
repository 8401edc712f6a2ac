// Package monitoring holds the package-level loggers shared by the detector
// and the service binaries.
package monitoring

import "log"

// Logf is the package-level logger for operational messages (listener
// failures, dropped events, transport errors). It defaults to log.Printf but
// may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// Diagf receives per-step diagnostics such as suppressed steps. These can
// arrive at sensor rate, so it is muted unless SetDiagnosticLogger enables it.
var Diagf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDiagnosticLogger replaces the diagnostic logger. Passing nil mutes it.
func SetDiagnosticLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Diagf = func(string, ...interface{}) {}
		return
	}
	Diagf = f
}
