package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestSetup_ReturnsJSONLoggerWithService(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Info("login succeeded", slog.String("user_id", "u-123"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	entry := entries[0]

	if entry["msg"] != "login succeeded" {
		t.Errorf("msg = %q, want %q", entry["msg"], "login succeeded")
	}
	if entry["user_id"] != "u-123" {
		t.Errorf("user_id = %q, want %q", entry["user_id"], "u-123")
	}
	if entry["service"] != ServiceName {
		t.Errorf("service = %q, want %q", entry["service"], ServiceName)
	}
	for _, key := range []string{"time", "level"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("expected %q field in JSON log output", key)
		}
	}
}

func TestSetup_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelWarn)

	l.Info("dropped")
	l.Warn("kept")

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1: %s", len(entries), buf.String())
	}
	if entries[0]["level"] != "WARN" {
		t.Errorf("level = %q, want %q", entries[0]["level"], "WARN")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupDefault(&buf, slog.LevelInfo)

	slog.Default().Info("global test", slog.String("test_key", "test_val"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0]["msg"] != "global test" {
		t.Errorf("msg = %q, want %q", entries[0]["msg"], "global test")
	}
	if entries[0]["test_key"] != "test_val" {
		t.Errorf("test_key = %q, want %q", entries[0]["test_key"], "test_val")
	}
}
