package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// TestLogger_IncludesRequestFields verifies fetch identity fields are present in log output.
func TestLogger_IncludesRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := RequestMeta{
		Provider: "github",
		Owner:    "acme",
		Repo:     "widgets",
		Number:   42,
	}

	reqLogger := logger.WithRequest(meta)
	reqLogger.Info(context.Background(), "test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if v, ok := logEntry["diff.provider"].(string); !ok || v != "github" {
		t.Errorf("expected diff.provider='github', got %v", logEntry["diff.provider"])
	}
	if v, ok := logEntry["diff.pr"].(string); !ok || v != "acme/widgets#42" {
		t.Errorf("expected diff.pr='acme/widgets#42', got %v", logEntry["diff.pr"])
	}
}

// TestLogger_IncludesDuration verifies duration_ms field is present.
func TestLogger_IncludesDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	reqLogger := logger.WithRequest(RequestMeta{Provider: "github"})
	reqLogger.Info(context.Background(), "test message",
		Field{Key: "duration_ms", Value: 50.5},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["duration_ms"].(float64); !ok || v != 50.5 {
		t.Errorf("expected duration_ms=50.5, got %v", logEntry["duration_ms"])
	}
}

// TestLogger_ErrorLevel verifies error log level and error field.
func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	reqLogger := logger.WithRequest(RequestMeta{Provider: "gitlab"})
	reqLogger.Error(context.Background(), "fetch failed",
		Field{Key: "error", Value: "connection timeout"},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["level"].(string); !ok || v != "error" {
		t.Errorf("expected level='error', got %v", logEntry["level"])
	}
	if v, ok := logEntry["error"].(string); !ok || v != "connection timeout" {
		t.Errorf("expected error='connection timeout', got %v", logEntry["error"])
	}
}

// TestLogger_SecretsRedacted verifies sensitive field values never reach the writer.
func TestLogger_SecretsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "provider call",
		Field{Key: "token", Value: "ghp_supersecret123"},
		Field{Key: "authorization", Value: "Bearer abc"},
	)

	output := buf.String()
	if strings.Contains(output, "ghp_supersecret123") {
		t.Error("raw token should be redacted, but found in output")
	}
	if strings.Contains(output, "Bearer abc") {
		t.Error("raw authorization should be redacted, but found in output")
	}
	if !strings.Contains(output, "[REDACTED]") {
		t.Error("expected [REDACTED] marker in output")
	}
}

// TestLogger_LevelFiltering verifies log level filtering.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Info(context.Background(), "info message")
	if strings.Contains(buf.String(), "info message") {
		t.Error("info message should be filtered when level is warn")
	}

	logger.Warn(context.Background(), "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("warn message should pass through when level is warn")
	}
}

// TestLogger_DebugLevel verifies debug level filtering.
func TestLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Debug(context.Background(), "debug message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["level"].(string); !ok || v != "debug" {
		t.Errorf("expected level='debug', got %v", logEntry["level"])
	}
}

// TestLogger_ChildDoesNotMutateParent verifies WithRequest returns an independent logger.
func TestLogger_ChildDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	_ = logger.WithRequest(RequestMeta{Provider: "github", Owner: "acme", Repo: "widgets", Number: 7})

	logger.Info(context.Background(), "parent line")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}
	if _, ok := logEntry["diff.provider"]; ok {
		t.Error("parent logger should not carry request attributes from a child")
	}
}

// TestParseLogLevel verifies the string-to-level mapping.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
