package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.json")

	logger, closer, err := New(slog.LevelInfo, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("guild selected", "guild_id", "42")
	logger.Debug("filtered out")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 JSON line, got %d: %s", len(lines), data)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if rec["msg"] != "guild selected" || rec["guild_id"] != "42" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNew_NoFile(t *testing.T) {
	logger, closer, err := New(slog.LevelWarn, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("nop closer returned %v", err)
	}
}
