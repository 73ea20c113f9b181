package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "evolve-metrics"

// EvolveMetrics provides metrics collection for evolve requests
type EvolveMetrics struct {
	requestsCounter   metric.Int64Counter
	failedCounter     metric.Int64Counter
	durationHistogram metric.Float64Histogram
	activeGauge       metric.Int64UpDownCounter
}

// NewEvolveMetrics creates a new evolve metrics collector on the global
// MeterProvider. Install the provider before calling it.
func NewEvolveMetrics() (*EvolveMetrics, error) {
	return NewEvolveMetricsWithMeter(otel.Meter(meterName))
}

// NewEvolveMetricsWithMeter creates the evolve instruments on meter
func NewEvolveMetricsWithMeter(meter metric.Meter) (*EvolveMetrics, error) {
	requestsCounter, err := meter.Int64Counter(
		"world_oracle.evolve.requests",
		metric.WithDescription("Total number of evolve requests received"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	failedCounter, err := meter.Int64Counter(
		"world_oracle.evolve.failed",
		metric.WithDescription("Total number of evolve requests that failed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	durationHistogram, err := meter.Float64Histogram(
		"world_oracle.evolve.duration",
		metric.WithDescription("Duration of evolve requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeGauge, err := meter.Int64UpDownCounter(
		"world_oracle.evolve.active",
		metric.WithDescription("Number of evolve requests waiting on the upstream model"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &EvolveMetrics{
		requestsCounter:   requestsCounter,
		failedCounter:     failedCounter,
		durationHistogram: durationHistogram,
		activeGauge:       activeGauge,
	}, nil
}

// RecordStarted records an evolve request that passed validation and is
// about to call the upstream model
func (em *EvolveMetrics) RecordStarted(ctx context.Context, model string) {
	em.requestsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("llm.model", model)),
	)
	em.activeGauge.Add(ctx, 1,
		metric.WithAttributes(attribute.String("llm.model", model)),
	)
}

// RecordSucceeded records a completed evolve request
func (em *EvolveMetrics) RecordSucceeded(ctx context.Context, model string, duration time.Duration) {
	em.durationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("llm.model", model),
			attribute.String("status", "succeeded"),
		),
	)
	em.activeGauge.Add(ctx, -1,
		metric.WithAttributes(attribute.String("llm.model", model)),
	)
}

// RecordFailed records an evolve request that failed after RecordStarted
func (em *EvolveMetrics) RecordFailed(ctx context.Context, model, errorType string, duration time.Duration) {
	em.failedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("llm.model", model),
			attribute.String("error.type", errorType),
		),
	)
	em.durationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("llm.model", model),
			attribute.String("status", "failed"),
		),
	)
	em.activeGauge.Add(ctx, -1,
		metric.WithAttributes(attribute.String("llm.model", model)),
	)
}

// RecordRejected records a request refused before any upstream call
func (em *EvolveMetrics) RecordRejected(ctx context.Context, errorType string) {
	em.requestsCounter.Add(ctx, 1)
	em.failedCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("error.type", errorType)),
	)
}
