// Package observability provides OpenTelemetry tracing for stemgraph.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name used for the stemgraph tracer.
	TracerName = "github.com/efebarandurmaz/stemgraph"
)

// TracingConfig configures the OpenTelemetry tracing.
type TracingConfig struct {
	// ServiceName is the name of the service (default: "stemgraph")
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, prod)
	Environment string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317")
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "stemgraph",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{
			tracer: otel.Tracer(TracerName),
		}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown flushes pending spans and stops the provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Span kinds recorded under the stemgraph.span.kind attribute.
const (
	SpanKindConvert = "convert"
	SpanKindPass    = "pass"
	SpanKindExport  = "export"
	SpanKindStore   = "store"
)

// Conversion pass names.
const (
	PassResolve = "resolve"
	PassNodes   = "nodes"
	PassEdges   = "edges"
)

// StartConvertSpan starts the root span of one document conversion.
func StartConvertSpan(ctx context.Context, title string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "convert",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stemgraph.span.kind", SpanKindConvert),
			attribute.String("document.title", title),
		),
	)
}

// StartPassSpan starts a span for one conversion pass.
func StartPassSpan(ctx context.Context, pass string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "pass."+pass,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stemgraph.span.kind", SpanKindPass),
			attribute.String("pass.name", pass),
		),
	)
}

// RecordPassResult records how many rows a pass produced.
func RecordPassResult(span trace.Span, rows int) {
	span.SetAttributes(attribute.Int("pass.rows", rows))
}

// StartExportSpan starts a span for writing one output format.
func StartExportSpan(ctx context.Context, format, destination string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "export."+format,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stemgraph.span.kind", SpanKindExport),
			attribute.String("export.format", format),
			attribute.String("export.destination", destination),
		),
	)
}

// RecordExportResult records the files written by an export.
func RecordExportResult(span trace.Span, files []string) {
	span.SetAttributes(
		attribute.Int("export.file_count", len(files)),
		attribute.StringSlice("export.files", files),
	)
}

// StartStoreSpan starts a span for pushing a graph into a graph store.
func StartStoreSpan(ctx context.Context, backend string, nodes, edges int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "store."+backend,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("stemgraph.span.kind", SpanKindStore),
			attribute.String("store.backend", backend),
			attribute.Int("store.nodes", nodes),
			attribute.Int("store.edges", edges),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
