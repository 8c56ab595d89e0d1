package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func capture(t *testing.T, cfg LogConfig) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if err := InitWithConfig(cfg); err != nil {
		t.Fatalf("InitWithConfig failed: %v", err)
	}
	return &buf
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", line, err)
	}
	return m
}

func TestCompanyEvent(t *testing.T) {
	buf := capture(t, LogConfig{Level: "INFO"})

	Company(context.Background(), "ACME", "partial", "failures", 2)

	m := decode(t, strings.TrimSpace(buf.String()))
	if m["type"] != "COMPANY" || m["symbol"] != "ACME" || m["status"] != "partial" {
		t.Errorf("Unexpected fields: %v", m)
	}
	if m["failures"] != float64(2) {
		t.Errorf("Expected extra field to be kept, got %v", m["failures"])
	}
}

func TestFailureEventIsWarn(t *testing.T) {
	buf := capture(t, LogConfig{Level: "WARN"})

	Info(context.Background(), "dropped at warn level")
	Failure(context.Background(), "ACME", "scoring", "undefined", "QA: computation undefined")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}
	m := decode(t, lines[0])
	if m["level"] != "WARN" || m["kind"] != "undefined" {
		t.Errorf("Unexpected fields: %v", m)
	}
}

func TestDebugNeedsDetailedLogging(t *testing.T) {
	buf := capture(t, LogConfig{Level: "DEBUG"})
	Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output without detailed logging, got %q", buf.String())
	}

	buf = capture(t, LogConfig{Level: "DEBUG", DetailedLogging: true})
	Debug(context.Background(), "shown")
	m := decode(t, strings.TrimSpace(buf.String()))
	src, ok := m["source"].(map[string]any)
	if !ok {
		t.Fatalf("Expected source group, got %v", m)
	}
	if !strings.Contains(src["function"].(string), "TestDebugNeedsDetailedLogging") {
		t.Errorf("Expected caller to be the test, got %v", src["function"])
	}
}

func TestErrorWithErr(t *testing.T) {
	buf := capture(t, LogConfig{Level: "INFO"})
	ErrorWithErr(context.Background(), "save failed", errors.New("boom"), "sink", "mongo")

	m := decode(t, strings.TrimSpace(buf.String()))
	if m["error"] != "boom" || m["sink"] != "mongo" {
		t.Errorf("Unexpected fields: %v", m)
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("warn").String() != "WARN" {
		t.Error("Expected case-insensitive level parsing")
	}
	if parseLogLevel("verbose").String() != "INFO" {
		t.Error("Expected INFO for unknown level")
	}
}

func TestOperationTimer(t *testing.T) {
	buf := capture(t, LogConfig{Level: "INFO"})

	fields := make([]any, 2, 8)
	fields[0], fields[1] = "path", "out.csv"
	op := StartOperation(context.Background(), "export.write", fields...)
	if op.Context() == nil {
		t.Fatal("Expected a context")
	}
	op.End("rows", 3)

	m := decode(t, strings.TrimSpace(buf.String()))
	if m["msg"] != "Operation completed" || m["path"] != "out.csv" || m["rows"] != float64(3) {
		t.Errorf("Unexpected fields: %v", m)
	}
	if _, ok := m["duration_ms"]; !ok {
		t.Errorf("Expected duration_ms, got %v", m)
	}
	if spare := fields[:cap(fields)]; spare[2] != nil {
		t.Errorf("Expected caller's fields to be left alone, got %v", spare)
	}
}

func TestOperationTimerError(t *testing.T) {
	buf := capture(t, LogConfig{Level: "INFO"})

	op := StartOperation(context.Background(), "sinks.save", "sinks", 2)
	op.EndWithError(errors.New("timeout"))

	m := decode(t, strings.TrimSpace(buf.String()))
	if m["level"] != "ERROR" || m["error"] != "timeout" || m["sinks"] != float64(2) {
		t.Errorf("Unexpected fields: %v", m)
	}
}
