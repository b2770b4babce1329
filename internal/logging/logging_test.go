package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vvatanabe/scm/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&logging.Config{Level: "info", Format: "json", Output: &buf})
	logger.Debug("hidden")
	logger.Info("shown", zap.String("id", "S-1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if entry["msg"] != "shown" || entry["id"] != "S-1" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&logging.Config{Level: "warn", Output: &buf})
	logger.Info("hidden")
	logger.Warn("careful")
	if out := buf.String(); !strings.Contains(out, "WARN") || !strings.Contains(out, "careful") || strings.Contains(out, "hidden") {
		t.Errorf("output = %q", out)
	}
}
