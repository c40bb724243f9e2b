// Functions for working with OpenTelemetry in publishd.

package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/nais/publish/pkg/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	otrace "go.opentelemetry.io/otel/trace"
)

const (
	batchTimeout = 5 * time.Second
	tracerName   = "github.com/nais/publish"
)

var tracer *trace.TracerProvider

// New sets up tracing with an OTLP/HTTP exporter.
//
// You MUST call `Shutdown()` on the tracer provider before exiting,
// lest traces are not sent to the collector.
func New(ctx context.Context, serviceName string, collectorEndpointURL string) (*trace.TracerProvider, error) {
	otel.SetTextMapPropagator(newPropagator())

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.OSName(runtime.GOOS),
		semconv.ServiceVersion(version.Version()),
	)

	tracerProvider, err := newTraceProvider(ctx, res, collectorEndpointURL)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tracerProvider)

	tracer = tracerProvider

	return tracerProvider, nil
}

// Tracer returns the publishd tracer.
// Before New has been called, spans go to the global provider, which discards them by default.
func Tracer() otrace.Tracer {
	if tracer == nil {
		return otel.Tracer(tracerName)
	}
	return tracer.Tracer(tracerName)
}

// RecordError marks the span as failed.
func RecordError(span otrace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

func newTraceProvider(ctx context.Context, res *resource.Resource, endpointURL string) (*trace.TracerProvider, error) {
	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpointURL))
	if err != nil {
		return nil, err
	}

	traceProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter,
			trace.WithBatchTimeout(batchTimeout)),
		trace.WithResource(res),
	)

	return traceProvider, nil
}
