package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/tmikov/c99"

// Tracer follows the global tracer provider, a no-op until InitTracing
// installs an exporter.
var Tracer trace.Tracer = otel.Tracer(instrumentation)

// InitTracing exports spans over OTLP gRPC to endpoint. An empty endpoint
// leaves tracing disabled. The returned function flushes and stops the
// exporter.
func InitTracing(ctx context.Context, endpoint string, insecure bool, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "c99"),
			attribute.String("service.version", version),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// StartFile opens the span covering the parse of one file.
func StartFile(ctx context.Context, path string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "parse.File", trace.WithAttributes(attribute.String("c99.file", path)))
}

// EndFile annotates and ends a span opened by StartFile.
func EndFile(span trace.Span, decls, errors, warnings int, err error) {
	span.SetAttributes(
		attribute.Int("c99.declarations", decls),
		attribute.Int("c99.errors", errors),
		attribute.Int("c99.warnings", warnings),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if errors > 0 {
		span.SetStatus(codes.Error, "diagnostics reported")
	}
	span.End()
}
