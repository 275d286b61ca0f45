package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	defer SetLevel(LevelDebug)

	Debug("polling %s", "screen")
	Info("launched %s", "dev")
	SetLevel(LevelWarn)
	Info("dropped")
	Error("failed: %d", 500)

	out := buf.String()
	for _, want := range []string{"[DEBUG] polling screen", "[INFO] launched dev", "[ERROR] failed: 500"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "dropped") {
		t.Errorf("Expected info line below warn level to be dropped, got:\n%s", out)
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ecp-runner.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	Warn("device %s slow", "192.168.1.2")
	if GetWriter() == nil {
		t.Error("Expected a writer")
	}
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "[WARN] device 192.168.1.2 slow") {
		t.Errorf("Unexpected log content: %s", data)
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	Close()
	Info("nobody listens")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "Warn": LevelWarn, "error": LevelError}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
