package telemetry

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

var (
	tracerName = "github.com/unkn0wn-root/ember/internal/telemetry"
	runIDKey   = attribute.Key("ember.run.id")
)

type Instrumenter interface {
	Start(ctx context.Context, info RunStart) (context.Context, RunSpan)
	Shutdown(ctx context.Context) error
}

type RunStart struct {
	RunID  string
	Path   string
	Mode   string
	Source []byte
	Steps  int
	Depth  int
}

type RunResult struct {
	Err   error
	Kind  string
	Value string
	Steps int
}

type RunSpan interface {
	RecordParse(dur time.Duration, diags []string)
	End(result RunResult)
}

type providerOptions struct {
	exporter       sdktrace.SpanExporter
	spanProcessors []sdktrace.SpanProcessor
}

type Option func(*providerOptions)

func WithSpanProcessor(proc sdktrace.SpanProcessor) Option {
	return func(opts *providerOptions) {
		if proc != nil {
			opts.spanProcessors = append(opts.spanProcessors, proc)
		}
	}
}

func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(opts *providerOptions) {
		if exp != nil {
			opts.exporter = exp
		}
	}
}

type manager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	shutdown sync.Once
}

func New(cfg Config, opts ...Option) (Instrumenter, error) {
	builder := providerOptions{}
	for _, opt := range opts {
		opt(&builder)
	}

	if !cfg.Enabled() && builder.exporter == nil && len(builder.spanProcessors) == 0 {
		return Noop(), nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(buildResourceAttributes(cfg)...),
	)
	if err != nil {
		return nil, err
	}

	exporter := builder.exporter
	if exporter == nil && cfg.Enabled() {
		exporter, err = newExporter(cfg)
		if err != nil {
			return nil, err
		}
	}

	var tpOpts []sdktrace.TracerProviderOption
	tpOpts = append(tpOpts, sdktrace.WithResource(res))
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	for _, proc := range builder.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(proc))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	return &manager{tracer: tp.Tracer(tracerName), provider: tp}, nil
}

func (m *manager) Start(ctx context.Context, info RunStart) (context.Context, RunSpan) {
	ctx, span := m.tracer.Start(
		ctx,
		spanNameFor(info),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(buildSpanAttributes(info)...),
	)
	return ctx, &runSpan{span: span}
}

func (m *manager) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	var shutdownErr error
	m.shutdown.Do(func() {
		shutdownErr = m.provider.Shutdown(ctx)
	})
	return shutdownErr
}

type runSpan struct {
	span trace.Span
}

func (rs *runSpan) RecordParse(dur time.Duration, diags []string) {
	if rs == nil || rs.span == nil {
		return
	}

	rs.span.SetAttributes(
		attribute.Int64("ember.parse.duration_us", dur.Microseconds()),
		attribute.Int("ember.parse.diagnostics", len(diags)),
	)
	for _, d := range diags {
		rs.span.AddEvent(
			"ember.parse.diagnostic",
			trace.WithAttributes(attribute.String("ember.diagnostic", d)),
		)
	}
}

func (rs *runSpan) End(result RunResult) {
	if rs == nil || rs.span == nil {
		return
	}

	rs.span.SetAttributes(attribute.Int("ember.eval.steps", result.Steps))
	if result.Kind != "" {
		rs.span.SetAttributes(attribute.String("ember.result.kind", result.Kind))
	}
	if result.Value != "" {
		rs.span.SetAttributes(attribute.String("ember.result.value", result.Value))
	}

	statusCode := codes.Ok
	statusMsg := "OK"
	switch {
	case result.Err != nil:
		rs.span.RecordError(result.Err)
		statusCode = codes.Error
		statusMsg = result.Err.Error()
	case result.Kind == "error":
		statusCode = codes.Error
		statusMsg = result.Value
	}

	rs.span.SetStatus(statusCode, statusMsg)
	rs.span.End()
}

func Noop() Instrumenter {
	return noopInstrumenter{}
}

type noopInstrumenter struct{}

type noopSpan struct{}

func (noopInstrumenter) Start(ctx context.Context, _ RunStart) (context.Context, RunSpan) {
	return ctx, noopSpan{}
}

func (noopInstrumenter) Shutdown(context.Context) error { return nil }

func (noopSpan) RecordParse(time.Duration, []string) {}

func (noopSpan) End(RunResult) {}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("telemetry endpoint is required")
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent(userAgent(cfg))),
	}
	if cfg.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	client := otlptracegrpc.NewClient(clientOpts...)
	return otlptrace.New(ctx, client)
}

func userAgent(cfg Config) string {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = defaultServiceName
	}
	if v := strings.TrimSpace(cfg.Version); v != "" {
		return name + "/" + v
	}
	return name
}

func buildResourceAttributes(cfg Config) []attribute.KeyValue {
	name := cfg.ServiceName
	if strings.TrimSpace(name) == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
	}
	if strings.TrimSpace(cfg.Version) != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.Version))
	}
	return attrs
}

func buildSpanAttributes(info RunStart) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int("ember.source.bytes", len(info.Source)),
	}
	if info.RunID != "" {
		attrs = append(attrs, runIDKey.String(info.RunID))
	}
	if path := strings.TrimSpace(info.Path); path != "" {
		attrs = append(attrs, semconv.CodeFilepath(path))
	}
	if mode := strings.TrimSpace(info.Mode); mode != "" {
		attrs = append(attrs, attribute.String("ember.run.mode", mode))
	}
	if info.Steps > 0 {
		attrs = append(attrs, attribute.Int("ember.limit.max_steps", info.Steps))
	}
	if info.Depth > 0 {
		attrs = append(attrs, attribute.Int("ember.limit.max_depth", info.Depth))
	}
	return attrs
}

func spanNameFor(info RunStart) string {
	if path := strings.TrimSpace(info.Path); path != "" {
		return "ember.run " + filepath.Base(path)
	}
	if mode := strings.TrimSpace(info.Mode); mode != "" {
		return "ember.run " + mode
	}
	return "ember.run"
}
