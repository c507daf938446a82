// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter provider and the run-level
// instruments shared across the pipeline.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	runCounter    otelmetric.Int64Counter
	waveDuration  otelmetric.Float64Histogram
}

// New wires the Prometheus exporter into an otel meter provider and creates
// the shared instruments.
func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	runCounter, _ := meter.Int64Counter(
		"quote.runs",
		otelmetric.WithDescription("Number of quote runs processed"),
	)

	waveDuration, _ := meter.Float64Histogram(
		"quote.wave.duration",
		otelmetric.WithDescription("Dispatch wave duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		runCounter:    runCounter,
		waveDuration:  waveDuration,
	}
}

// RecordRun counts a finished run by terminal status.
func (o *Observability) RecordRun(ctx context.Context, status string) {
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordWaveDuration records how long a dispatch wave took.
func (o *Observability) RecordWaveDuration(ctx context.Context, duration time.Duration, wave string) {
	if o.waveDuration != nil {
		o.waveDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("wave", wave),
		))
	}
}

// Shutdown flushes the meter provider.
func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
