// Package observe provides observability primitives for the service:
// OpenTelemetry metrics with a Prometheus exporter bridge and HTTP middleware.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all service metrics.
const meterName = "github.com/TheRemi120/runcoach"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// StageDuration tracks review-pipeline stage latency. Use with attribute:
	//   attribute.String("stage", ...) — recording, transcribing, structuring, persisting
	StageDuration metric.Float64Histogram

	// PipelineRuns counts pipeline runs by outcome. Use with attribute:
	//   attribute.String("outcome", ...) — complete, error
	PipelineRuns metric.Int64Counter

	// StructuringResults counts structuring outcomes by producing path. Use
	// with attribute:
	//   attribute.String("source", ...) — model, heuristic
	StructuringResults metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// CoachRequests counts coaching-message requests by refinement outcome.
	// Use with attribute:
	//   attribute.String("refined", "true"|"false")
	CoachRequests metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// remote-provider latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("runcoach.pipeline.stage.duration",
		metric.WithDescription("Latency of review-pipeline stages."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineRuns, err = m.Int64Counter("runcoach.pipeline.runs",
		metric.WithDescription("Total review-pipeline runs by outcome."),
	); err != nil {
		return nil, err
	}
	if met.StructuringResults, err = m.Int64Counter("runcoach.structuring.results",
		metric.WithDescription("Total structuring results by producing path."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("runcoach.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.CoachRequests, err = m.Int64Counter("runcoach.coach.requests",
		metric.WithDescription("Total coaching-message requests by refinement outcome."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("runcoach.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordStage records the latency of one pipeline stage.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordRun records a completed or failed pipeline run.
func (m *Metrics) RecordRun(ctx context.Context, outcome string) {
	m.PipelineRuns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordStructuring records which path produced a structuring result.
func (m *Metrics) RecordStructuring(ctx context.Context, source string) {
	m.StructuringResults.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordCoachRequest records a coaching-message request and whether the LLM
// refinement was used.
func (m *Metrics) RecordCoachRequest(ctx context.Context, refined bool) {
	v := "false"
	if refined {
		v = "true"
	}
	m.CoachRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("refined", v)),
	)
}
