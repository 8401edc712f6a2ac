package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWithinDirectory(t *testing.T) {
	tmp := t.TempDir()
	safe := filepath.Join(tmp, "plots")
	other := filepath.Join(tmp, "elsewhere")
	for _, d := range []string{safe, other} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink(other, filepath.Join(safe, "link")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"new file", filepath.Join(safe, "walk.png"), false},
		{"nested new dir", filepath.Join(safe, "a", "b", "walk.png"), false},
		{"dir itself", safe, false},
		{"dot dot", filepath.Join(safe, "..", "elsewhere", "walk.png"), true},
		{"absolute elsewhere", "/etc/passwd", true},
		{"through symlink", filepath.Join(safe, "link", "walk.png"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WithinDirectory(tt.path, safe)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutsideAllowedDirs) {
				t.Errorf("error %v does not wrap ErrOutsideAllowedDirs", err)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()

	if err := ValidateOutputPath(filepath.Join(b, "trace.png"), a, b); err != nil {
		t.Errorf("path in second dir rejected: %v", err)
	}
	if err := ValidateOutputPath("/etc/trace.png", a, b); !errors.Is(err, ErrOutsideAllowedDirs) {
		t.Errorf("error = %v, want ErrOutsideAllowedDirs", err)
	}

	// Defaults cover the temp directory.
	if err := ValidateOutputPath(filepath.Join(os.TempDir(), "trace.png")); err != nil {
		t.Errorf("temp dir rejected by default: %v", err)
	}
	if err := ValidateOutputPath("trace.png"); err != nil {
		t.Errorf("relative path rejected by default: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"session-1.csv", "session-1.csv"},
		{"3f2a/../../etc", "3f2a_.._.._etc"},
		{"a b\tc", "a_b_c"},
		{"\"quoted\"", "quoted"},
		{"...", "unknown"},
		{"", "unknown"},
		{"walk__2", "walk_2"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	if got := SanitizeFilename(string(long)); len(got) != maxFilenameLen {
		t.Errorf("len = %d, want %d", len(got), maxFilenameLen)
	}
}
