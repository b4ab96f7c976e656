package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowboard/internal/config"
)

func TestConsoleHandlerFormatsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	WithComponent(logger, "workflow").Info("stage completed",
		String(FieldTaskID, "t1"),
		String(FieldColumn, "Audio"),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO workflow: stage completed") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "task_id=t1") || !strings.Contains(line, "column=Audio") {
		t.Fatalf("expected structured fields in line: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Warn("slot fallback", String("slot", "stage events"))
	if !strings.Contains(buf.String(), `slot="stage events"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info below warn to be suppressed, got %q", buf.String())
	}
	logger.Warn("visible")
	if !strings.Contains(buf.String(), "WARN visible") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestNewFromConfigTeesIntoLogFile(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "info"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	logger.Info("hello")

	contents, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "flowboard.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(contents), `"msg":"hello"`) {
		t.Fatalf("expected log line in file, got %q", contents)
	}
}

func TestJSONFormatSelectsJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hello", slog.String("k", "v"))
	line := buf.String()
	if !strings.Contains(line, `"msg":"hello"`) || !strings.Contains(line, `"k":"v"`) {
		t.Fatalf("unexpected json line: %q", line)
	}
}
