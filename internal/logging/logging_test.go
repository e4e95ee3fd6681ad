package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithComponentJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelDebug, "json")
	defer Configure(os.Stderr, slog.LevelInfo, "")

	InfoWithComponent(ComponentRender, "rendered", "width", 4)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != ComponentRender {
		t.Errorf("component = %v, want %q", entry["component"], ComponentRender)
	}
	if entry["msg"] != "rendered" {
		t.Errorf("msg = %v, want rendered", entry["msg"])
	}
	if entry["width"] != float64(4) {
		t.Errorf("width = %v, want 4", entry["width"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelWarn, "")
	defer Configure(os.Stderr, slog.LevelInfo, "")

	Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info message written at warn level: %q", buf.String())
	}
	Warn("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Fatalf("warn message missing: %q", buf.String())
	}
}
