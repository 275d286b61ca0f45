package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("ECP_RUNNER_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_FallbackToCwd(t *testing.T) {
	ResetHome()
	t.Setenv("ECP_RUNNER_HOME", "")

	// Falls back to cwd unless the test binary happens to be in a bin/ directory
	if got := GetHome(); got == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestGetHome_InstallPrefix(t *testing.T) {
	prefix := t.TempDir()
	bin := filepath.Join(prefix, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	binary := filepath.Join(bin, "ecp-runner")
	if err := os.WriteFile(binary, nil, 0o755); err != nil {
		t.Fatal(err)
	}

	original := executable
	executable = func() (string, error) { return binary, nil }
	defer func() { executable = original }()
	ResetHome()
	defer ResetHome()
	t.Setenv(EnvHome, "")

	want, _ := filepath.EvalSymlinks(prefix)
	if got := GetHome(); got != want {
		t.Errorf("GetHome() = %q, want %q", got, want)
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("ECP_RUNNER_HOME", "/first")

	first := GetHome()

	// Change env, should NOT affect cached value
	t.Setenv("ECP_RUNNER_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestHomePaths(t *testing.T) {
	ResetHome()
	t.Setenv("ECP_RUNNER_HOME", "/opt/ecp")
	defer ResetHome()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"logs dir", GetLogsDir(), filepath.Join("/opt/ecp", "logs")},
		{"log path", GetLogPath(), filepath.Join("/opt/ecp", "logs", "ecp-runner.log")},
		{"screenshots dir", GetScreenshotsDir(), filepath.Join("/opt/ecp", "screenshots")},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
