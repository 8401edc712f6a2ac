package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("listener %d failed", 3)
	if got != "listener 3 failed" {
		t.Errorf("Logf wrote %q", got)
	}

	called := false
	SetLogger(func(string, ...interface{}) { called = true })
	SetLogger(nil)
	Logf("muted")
	if called {
		t.Error("nil logger should be a no-op")
	}
}

func TestDiagf_MutedByDefault(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Diagf panicked: %v", r)
		}
	}()
	Diagf("power too low: %.1f", 12.0)
}

func TestSetDiagnosticLogger(t *testing.T) {
	original := Diagf
	defer func() { Diagf = original }()

	n := 0
	SetDiagnosticLogger(func(string, ...interface{}) { n++ })
	Diagf("a")
	Diagf("b")
	if n != 2 {
		t.Errorf("diagnostic logger called %d times, want 2", n)
	}

	SetDiagnosticLogger(nil)
	Diagf("c")
	if n != 2 {
		t.Error("nil diagnostic logger should be a no-op")
	}
}
