package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestRequestMeta_SpanName verifies span name includes the provider.
func TestRequestMeta_SpanName(t *testing.T) {
	meta := RequestMeta{
		Provider: "github",
		Owner:    "acme",
		Repo:     "widgets",
		Number:   42,
	}

	expected := "diff.fetch.github"
	if got := meta.SpanName(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestRequestMeta_PR verifies the qualified pull-request identifier.
func TestRequestMeta_PR(t *testing.T) {
	tests := []struct {
		name     string
		meta     RequestMeta
		expected string
	}{
		{
			name:     "typical",
			meta:     RequestMeta{Owner: "acme", Repo: "widgets", Number: 42},
			expected: "acme/widgets#42",
		},
		{
			name:     "single digit",
			meta:     RequestMeta{Owner: "a", Repo: "b", Number: 1},
			expected: "a/b#1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.PR(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

// TestTracer_SpanAttributes verifies fetch attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := RequestMeta{
		Provider: "github",
		Owner:    "acme",
		Repo:     "widgets",
		Number:   42,
	}

	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]

	if s.Name() != "diff.fetch.github" {
		t.Errorf("expected span name 'diff.fetch.github', got %q", s.Name())
	}

	attrMap := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		attrMap[string(a.Key)] = a.Value
	}

	if v, ok := attrMap["diff.provider"]; !ok || v.AsString() != "github" {
		t.Errorf("expected diff.provider='github', got %v", v)
	}
	if v, ok := attrMap["diff.pr"]; !ok || v.AsString() != "acme/widgets#42" {
		t.Errorf("expected diff.pr='acme/widgets#42', got %v", v)
	}
}

// TestTracer_ContextPropagation verifies parent span is propagated.
func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := RequestMeta{Provider: "gitlab", Owner: "acme", Repo: "widgets", Number: 7}

	parentCtx, parentSpan := tracer.Start(context.Background(), "parent")

	_, childSpan := tr.StartSpan(parentCtx, meta)
	tr.EndSpan(childSpan, nil)
	parentSpan.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	var child sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == "diff.fetch.gitlab" {
			child = s
			break
		}
	}
	if child == nil {
		t.Fatal("child span not found")
	}

	if child.Parent().TraceID() != parentSpan.SpanContext().TraceID() {
		t.Error("child span should have same trace ID as parent")
	}
	if !child.Parent().SpanID().IsValid() {
		t.Error("child span should have valid parent span ID")
	}
}

// TestTracer_ErrorRecording verifies error sets span status.
func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := RequestMeta{Provider: "github", Owner: "acme", Repo: "widgets", Number: 1}

	_, span := tr.StartSpan(context.Background(), meta)
	testErr := errors.New("fetch failed")
	tr.EndSpan(span, testErr)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event on span")
	}
}

// TestNoopTracer_DoesNotPanic verifies the noop tracer is safe to use.
func TestNoopTracer_DoesNotPanic(t *testing.T) {
	tr := NewNoopTracer()
	_, span := tr.StartSpan(context.Background(), RequestMeta{Provider: "github"})
	tr.EndSpan(span, errors.New("ignored"))
}
