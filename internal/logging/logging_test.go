package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gravitas-games/mazenav/internal/config"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("path found", "maze", "spiral", "moves", 12)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line (debug filtered), got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "path found" || entry["maze"] != "spiral" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestRejectsBadSettings(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud", Format: "text"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for bad level")
	}
	if _, err := New(config.LogConfig{Level: "info", Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for bad format")
	}
}
