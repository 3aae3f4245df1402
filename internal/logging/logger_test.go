package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func withTerminal(t *testing.T, isTerminal bool) {
	t.Helper()
	prev := stderrIsTerminal
	stderrIsTerminal = func() bool { return isTerminal }
	t.Cleanup(func() { stderrIsTerminal = prev })
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	withTerminal(t, false)
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Format != "json" {
		t.Fatalf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.Level != slog.LevelInfo {
		t.Fatalf("Level = %v, want %v", cfg.Level, slog.LevelInfo)
	}
}

func TestLoadConfigFromEnv_TerminalDefaultsToText(t *testing.T) {
	withTerminal(t, true)
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Format != "text" {
		t.Fatalf("Format = %q, want %q", cfg.Format, "text")
	}
}

func TestLoadConfigFromEnv_ValidValues(t *testing.T) {
	t.Setenv(EnvFormat, "text")
	t.Setenv(EnvLevel, "debug")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Format != "text" {
		t.Fatalf("Format = %q, want %q", cfg.Format, "text")
	}
	if cfg.Level != slog.LevelDebug {
		t.Fatalf("Level = %v, want %v", cfg.Level, slog.LevelDebug)
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv(EnvFormat, "yaml")
	t.Setenv(EnvLevel, "")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected invalid LOG_FORMAT error")
	}

	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvLevel, "trace")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected invalid LOG_LEVEL error")
	}
}

func TestNewLogger_JSONIncludesStaticAttrs(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(DefaultConfig(), &out, "healthcare-dq run")
	logger.Info("hello")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.String())), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got := payload["app"]; got != "healthcare-dq" {
		t.Fatalf("app = %v, want %q", got, "healthcare-dq")
	}
	if got := payload["command"]; got != "healthcare-dq run" {
		t.Fatalf("command = %v, want %q", got, "healthcare-dq run")
	}
	if _, ok := payload["trace_id"]; ok {
		t.Fatalf("did not expect trace_id without a span: %v", payload)
	}
}

func TestNewLogger_AddsTraceIDs(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(DefaultConfig(), &out, "")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	logger.InfoContext(ctx, "traced")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.String())), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if payload["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" || payload["span_id"] != "00f067aa0ba902b7" {
		t.Fatalf("missing trace correlation: %v", payload)
	}
	if payload["command"] != "healthcare-dq" {
		t.Fatalf("command = %v", payload["command"])
	}
}
