// Package otelsetup installs the global OpenTelemetry tracer provider,
// following the teacher's common/otel package. No code in this module opens
// spans itself; the logging trace handler stamps ids only when a span is
// already active in the context.
package otelsetup

import (
	"context"
	"fmt"

	"github.com/lessonforge/pipeline/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes and tears down the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// Setup installs a global tracer provider. When cfg.OTel is not enabled, it
// installs nothing and leaves OpenTelemetry's default no-op global provider in
// place, so callers can still unconditionally create spans.
func Setup(ctx context.Context, cfg config.Config) (ShutdownFunc, error) {
	if !cfg.OTel.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.OTel.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("creating otlp exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.OTel.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
