package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelcache/internal/config"
	"reelcache/internal/logging"
	"reelcache/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("cache warmed", logging.Int("count", 3))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"cache warmed"`) {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerLayout(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRequestID(context.Background(), "req-1")
	component := logging.NewComponentLogger(logger, "resolve")
	logging.WithContext(ctx, component).Info("title resolved",
		logging.Float64("score", 12.5),
		logging.String(logging.FieldTitle, "The Matrix"),
	)

	line := buf.String()
	if !strings.Contains(line, " INFO resolve: title resolved ") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	idx := strings.Index(line, "correlation_id=req-1")
	titleIdx := strings.Index(line, `title="The Matrix"`)
	scoreIdx := strings.Index(line, "score=12.5")
	if idx < 0 || titleIdx < 0 || scoreIdx < 0 {
		t.Fatalf("missing fields in %q", line)
	}
	if !(idx < titleIdx && titleIdx < scoreIdx) {
		t.Fatalf("expected leading keys before other fields, got %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no color codes without a terminal, got %q", line)
	}
}

func TestConsoleLoggerColorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf, Color: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("careful")
	if !strings.Contains(buf.String(), "\x1b[33mWARN\x1b[0m") {
		t.Fatalf("expected colored level label, got %q", buf.String())
	}
}

func TestJSONLoggerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("catalog fetch failed", logging.Error(errors.New("timeout")))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "warn" || payload["msg"] != "catalog fetch failed" || payload["error"] != "timeout" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "credits unavailable", "tmdb_credits_failed",
		logging.String(logging.FieldImpact, "cast not cached"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "tmdb_credits_failed" {
		t.Fatalf("unexpected event type: %v", payload)
	}
	if payload[logging.FieldErrorHint] == "" {
		t.Fatalf("expected default hint, got %v", payload)
	}
	if payload[logging.FieldImpact] != "cast not cached" {
		t.Fatalf("expected caller impact to win, got %v", payload)
	}
}

func TestTeeHandlerDuplicatesRecords(t *testing.T) {
	var a, b bytes.Buffer
	first, _ := logging.New(logging.Options{Format: "console", Writer: &a})
	second, _ := logging.New(logging.Options{Format: "console", Level: "error", Writer: &b})

	teeLogger := slog.New(logging.TeeHandler(first.Handler(), second.Handler(), nil))
	teeLogger.Info("info only")
	teeLogger.Error("both")

	if !strings.Contains(a.String(), "info only") || !strings.Contains(a.String(), "both") {
		t.Fatalf("first handler missing records: %q", a.String())
	}
	if strings.Contains(b.String(), "info only") || !strings.Contains(b.String(), "both") {
		t.Fatalf("second handler should only see errors: %q", b.String())
	}
}

func TestNewComponentLoggerWithNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "index")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop base logger to be disabled")
	}
}
