package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerWritesJSON(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.WithProvider("openai").WithRound(2).Info("dispatch", "model", "gpt-4o")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("reading debug.log: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v", err)
	}
	if entry["msg"] != "dispatch" {
		t.Errorf("msg = %v, want %q", entry["msg"], "dispatch")
	}
	if entry["provider"] != "openai" {
		t.Errorf("provider = %v, want %q", entry["provider"], "openai")
	}
	if entry["round"] != float64(2) {
		t.Errorf("round = %v, want 2", entry["round"])
	}
	if entry["model"] != "gpt-4o" {
		t.Errorf("model = %v, want %q", entry["model"], "gpt-4o")
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelError)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("hidden")
	logger.Error("shown")
	logger.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "debug.log"))
	content := string(data)
	if len(content) == 0 {
		t.Fatal("expected at least one log entry")
	}
	if want := "shown"; !strings.Contains(content, want) {
		t.Errorf("log missing %q", want)
	}
	if strings.Contains(content, "hidden") {
		t.Error("INFO entry should be filtered at ERROR level")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("nowhere")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
