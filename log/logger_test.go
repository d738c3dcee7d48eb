package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/supervise/types"
)

func TestLogger_RunContextFields(t *testing.T) {
	var buf bytes.Buffer
	meta := &types.RunMeta{RunID: "run-001", Label: "trainer", PID: 4242}
	logger := NewLoggerWithWriter(meta, &buf, zapcore.DebugLevel)

	logger.Info("milestone fired", map[string]any{"percent": 30})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v (%q)", err, buf.String())
	}
	if entry["run_id"] != "run-001" {
		t.Errorf("run_id = %v, want run-001", entry["run_id"])
	}
	if entry["label"] != "trainer" {
		t.Errorf("label = %v, want trainer", entry["label"])
	}
	if entry["pid"] != float64(4242) {
		t.Errorf("pid = %v, want 4242", entry["pid"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["percent"] != float64(30) {
		t.Errorf("fields = %v, want percent=30", entry["fields"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&types.RunMeta{RunID: "r", Label: "l"}, &buf, zapcore.WarnLevel)

	logger.Debug("hidden", nil)
	logger.Info("hidden", nil)
	logger.Warn("shown", nil)

	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("expected 1 log line, got %d: %q", got, buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", DefaultLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" INFO ", zapcore.InfoLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", DefaultLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSugaredLogger_Printf(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&types.RunMeta{RunID: "r", Label: "l"}, &buf, zapcore.WarnLevel)

	logger.Sugar().Debugf("hidden %d", 1)
	logger.Sugar().Warnf("failed to write run report: %s", "disk full")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v (%q)", err, buf.String())
	}
	if entry["message"] != "failed to write run report: disk full" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["run_id"] != "r" {
		t.Errorf("run_id = %v, want r", entry["run_id"])
	}
}

func TestNewNop(t *testing.T) {
	// Must not panic.
	l := NewNop()
	l.Error("ignored", map[string]any{"k": "v"})
	l.Sugar().Warnf("ignored %d", 1)
	l.Sync()
}
