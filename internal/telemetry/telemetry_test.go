package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorded(t *testing.T) (Instrumenter, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	inst, err := New(
		Config{ServiceName: "ember-test", Version: "test"},
		WithSpanProcessor(recorder),
	)
	if err != nil {
		t.Fatalf("New instrumenter: %v", err)
	}
	t.Cleanup(func() {
		_ = inst.Shutdown(context.Background())
	})
	return inst, recorder
}

func TestInstrumenterRecordsRun(t *testing.T) {
	inst, recorder := newRecorded(t)

	ctx, span := inst.Start(context.Background(), RunStart{
		RunID:  "run-1",
		Path:   "examples/main.ems",
		Mode:   "file",
		Source: []byte("1 + 2\n"),
		Steps:  1000,
	})
	if ctx == nil || span == nil {
		t.Fatalf("expected span to be created")
	}

	span.RecordParse(120*time.Microsecond, []string{"expected next token to be =, found NUMBER instead"})
	span.End(RunResult{Kind: "number", Value: "3", Steps: 4})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	ro := spans[0]
	if got := ro.Name(); got != "ember.run main.ems" {
		t.Fatalf("unexpected span name %q", got)
	}
	assertAttribute(t, ro, "ember.run.id", "run-1")
	assertAttribute(t, ro, "ember.run.mode", "file")
	assertAttribute(t, ro, "ember.source.bytes", int64(6))
	assertAttribute(t, ro, "ember.limit.max_steps", int64(1000))
	assertAttribute(t, ro, "ember.parse.diagnostics", int64(1))
	assertAttribute(t, ro, "ember.result.kind", "number")
	assertAttribute(t, ro, "ember.result.value", "3")
	assertAttribute(t, ro, "ember.eval.steps", int64(4))
	if ro.Status().Code != codes.Ok {
		t.Fatalf("expected span status OK, got %v", ro.Status().Code)
	}

	var diagEvents int
	for _, ev := range ro.Events() {
		if ev.Name == "ember.parse.diagnostic" {
			diagEvents++
		}
	}
	if diagEvents != 1 {
		t.Fatalf("expected 1 diagnostic event, got %d", diagEvents)
	}
}

func TestInstrumenterMarksErrors(t *testing.T) {
	inst, recorder := newRecorded(t)

	_, span := inst.Start(context.Background(), RunStart{Mode: "repl"})
	span.End(RunResult{Kind: "error", Value: "Invalid condition: 1"})

	_, span = inst.Start(context.Background(), RunStart{})
	span.End(RunResult{Err: errors.New("step limit exceeded")})

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "ember.run repl" || spans[1].Name() != "ember.run" {
		t.Fatalf("unexpected span names %q, %q", spans[0].Name(), spans[1].Name())
	}
	for _, ro := range spans {
		if ro.Status().Code != codes.Error {
			t.Fatalf("expected error status on %q, got %v", ro.Name(), ro.Status().Code)
		}
	}
	if spans[0].Status().Description != "Invalid condition: 1" {
		t.Fatalf("unexpected status description %q", spans[0].Status().Description)
	}
}

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := inst.(noopInstrumenter); !ok {
		t.Fatalf("expected noop instrumenter, got %T", inst)
	}
	ctx, span := inst.Start(context.Background(), RunStart{})
	span.RecordParse(0, nil)
	span.End(RunResult{})
	if ctx == nil {
		t.Fatalf("expected context")
	}
}

func TestUserAgent(t *testing.T) {
	if got := userAgent(Config{Version: "1.2.0"}); got != "ember/1.2.0" {
		t.Fatalf("unexpected user agent %q", got)
	}
	if got := userAgent(Config{ServiceName: "ci"}); got != "ci" {
		t.Fatalf("unexpected user agent %q", got)
	}
}

func assertAttribute(t *testing.T, span sdktrace.ReadOnlySpan, key string, want interface{}) {
	t.Helper()
	attrs := span.Attributes()
	for _, attr := range attrs {
		if string(attr.Key) != key {
			continue
		}
		switch v := want.(type) {
		case string:
			if attr.Value.AsString() == v {
				return
			}
		case bool:
			if attr.Value.AsBool() == v {
				return
			}
		case int64:
			if attr.Value.AsInt64() == v {
				return
			}
		}
		t.Fatalf("attribute %s mismatch: got %v, want %v", key, attr.Value, want)
	}
	t.Fatalf("attribute %s not found", key)
}
