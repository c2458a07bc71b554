package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.uber.org/zap"
)

// initTracing installs a global tracer provider when OTEL_ENABLED is set.
// The returned shutdown func is always safe to call.
func initTracing(ctx context.Context, log *zap.SugaredLogger, serviceName string) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !envBool("OTEL_ENABLED") {
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		log.Warnw("otel resource init failed (continuing)", "error", err)
	}

	exporter, err := traceExporter(ctx, log)
	if err != nil {
		log.Warnw("otel exporter init failed, tracing disabled", "error", err)
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Infow("otel tracing initialized", "service", serviceName)
	return tp.Shutdown
}

// traceExporter sends spans to OTEL_EXPORTER_OTLP_ENDPOINT, or to stdout
// when no endpoint is configured.
func traceExporter(ctx context.Context, log *zap.SugaredLogger) (sdktrace.SpanExporter, error) {
	if endpoint := envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""); endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if envBool("OTEL_EXPORTER_OTLP_INSECURE") {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	log.Warnw("otel using stdout exporter (no OTLP endpoint configured)")
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}
