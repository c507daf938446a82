// internal/common/observability/tracing.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Tracing owns the tracer provider backed by the Jaeger collector.
type Tracing struct {
	tracerProvider *sdktrace.TracerProvider
}

// NewTracing builds a tracer provider exporting to the given Jaeger
// collector endpoint. An empty endpoint yields a no-op Tracing.
func NewTracing(serviceName, collectorEndpoint string) (*Tracing, error) {
	if collectorEndpoint == "" {
		return &Tracing{}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(collectorEndpoint),
	))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{tracerProvider: provider}, nil
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown() {
	if t.tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		t.tracerProvider.Shutdown(ctx)
	}
}
