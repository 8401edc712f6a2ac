package version

import "testing"

func TestString(t *testing.T) {
	old := [3]string{Version, GitSHA, BuildTime}
	t.Cleanup(func() { Version, GitSHA, BuildTime = old[0], old[1], old[2] })

	Version, GitSHA, BuildTime = "v0.3.0", "abc1234", "2026-10-01T12:00:00Z"
	want := "stepd v0.3.0 (abc1234, built 2026-10-01T12:00:00Z)"
	if got := String("stepd"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
