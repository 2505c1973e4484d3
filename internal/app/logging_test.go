package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if result := tt.level.String(); result != tt.expected {
			t.Errorf("LogLevel(%d).String() = '%s', expected '%s'", tt.level, result, tt.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"unknown", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if result := ParseLogLevel(tt.input); result != tt.expected {
			t.Errorf("ParseLogLevel('%s') = %d, expected %d", tt.input, result, tt.expected)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", zap.String("key", "value"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "shown") || !strings.Contains(out, `"key": "value"`) {
		t.Errorf("warn entry missing or malformed: %q", out)
	}
}

func TestLogger_SetLevelSharedWithDerived(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(LoggerConfig{Level: LogLevelError, Output: &buf})
	child := root.WithComponent("calc").WithField("n", 1)

	child.Debug("before")
	root.SetLevel(LogLevelDebug)
	child.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("debug entry written before level change: %q", out)
	}
	if !strings.Contains(out, "after") || !strings.Contains(out, "calc") || !strings.Contains(out, `"n": 1`) {
		t.Errorf("derived logger entry malformed: %q", out)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Output: &buf, Fields: map[string]any{"session": "abc"}})
	logger.WithFields(map[string]any{"op": "save"}).Error("failed")

	out := buf.String()
	if !strings.Contains(out, `"session": "abc"`) || !strings.Contains(out, `"op": "save"`) {
		t.Errorf("fields missing: %q", out)
	}
}

func TestNullLogger(t *testing.T) {
	// Must not panic.
	NullLogger.Info("ignored")
	NullLogger.WithComponent("x").Error("ignored")
	NullLogger.Sync()
	if NullLogger.Zap() == nil {
		t.Error("Zap() = nil")
	}
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "keycalc.log")
	logger, closer, err := OpenLogFile(path, LogLevelInfo, nil)
	if err != nil {
		t.Fatalf("OpenLogFile() error = %v", err)
	}
	logger.Info("hello")
	logger.Sync()
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file = %q, want entry", data)
	}

	stderrLogger, closer, err := OpenLogFile("-", LogLevelInfo, nil)
	if err != nil || stderrLogger == nil {
		t.Fatalf("OpenLogFile(-) = %v, %v", stderrLogger, err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("stderr closer error = %v", err)
	}
}
