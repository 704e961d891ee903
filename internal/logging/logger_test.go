package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestLoggingDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != slog.LevelInfo {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.FilePath != "" {
		t.Errorf("FilePath = %q, want empty", cfg.FilePath)
	}
	if cfg.MaxSize != 50 {
		t.Errorf("MaxSize = %d, want 50", cfg.MaxSize)
	}
	if cfg.MaxBackups != 5 {
		t.Errorf("MaxBackups = %d, want 5", cfg.MaxBackups)
	}
	if !cfg.Console {
		t.Error("Console = false, want true")
	}
}

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "crawl.log")

	logger, err := NewLogger(Config{
		Level:      slog.LevelDebug,
		FilePath:   logFile,
		MaxSize:    10,
		MaxBackups: 3,
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("archive resolved", "url", "http://example.com/a")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "archive resolved" {
		t.Errorf("msg = %v, want the logged message", entry["msg"])
	}
	if entry["url"] != "http://example.com/a" {
		t.Errorf("url = %v, want the logged attribute", entry["url"])
	}
}

func TestNewLoggerCreatesLogDirectory(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "nested", "crawl.log")

	logger, err := NewLogger(Config{Level: slog.LevelInfo, FilePath: logFile, MaxSize: 10})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("hello")
	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("log file missing: %v", err)
	}
}

func TestNewLoggerFallsBackToConsole(t *testing.T) {
	// Neither console nor file requested still yields a usable logger.
	logger, err := NewLogger(Config{Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
}

func TestSetup(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "crawl.log")

	if err := Setup("debug", logFile); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	slog.Debug("walker started", "page", 1)

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("debug entry not written at debug level")
	}
}
