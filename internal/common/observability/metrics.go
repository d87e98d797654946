package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Observability records job and selection metrics through the otel meter.
// The prometheus exporter registers on the default registry, so the values
// show up on the same /metrics endpoint as the promauto collectors.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	selections    otelmetric.Int64Counter
	attempts      otelmetric.Int64Histogram
	degradations  otelmetric.Int64Counter
}

func New(serviceName string, log *zap.Logger) *Observability {
	if log == nil {
		log = zap.NewNop()
	}
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", zap.Error(err))
		return &Observability{}
	}
	obs := newWithReader(serviceName, exporter, log)
	otel.SetMeterProvider(obs.meterProvider)
	return obs
}

func newWithReader(serviceName string, reader metric.Reader, log *zap.Logger) *Observability {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)
	obs := &Observability{meterProvider: provider}

	var err error
	if obs.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		log.Warn("jobs.processed instrument unavailable", zap.Error(err))
	}
	if obs.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		log.Warn("jobs.duration instrument unavailable", zap.Error(err))
	}
	if obs.selections, err = meter.Int64Counter(
		"selection.runs",
		otelmetric.WithDescription("Selection runs by category and outcome"),
	); err != nil {
		log.Warn("selection.runs instrument unavailable", zap.Error(err))
	}
	if obs.attempts, err = meter.Int64Histogram(
		"selection.attempts",
		otelmetric.WithDescription("Attempts a selection run needed"),
		otelmetric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 10),
	); err != nil {
		log.Warn("selection.attempts instrument unavailable", zap.Error(err))
	}
	if obs.degradations, err = meter.Int64Counter(
		"selection.degradations",
		otelmetric.WithDescription("Enrichment lookups that failed without failing the run"),
	); err != nil {
		log.Warn("selection.degradations instrument unavailable", zap.Error(err))
	}
	return obs
}

// NewNoop returns an Observability that records nothing. Used in tests.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordSelection counts one finished run. attempts is skipped when zero,
// which is the case for enrichment of a known id.
func (o *Observability) RecordSelection(ctx context.Context, category, status string, attempts int) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("category", category),
		attribute.String("status", status),
	)
	if o.selections != nil {
		o.selections.Add(ctx, 1, attrs)
	}
	if o.attempts != nil && attempts > 0 {
		o.attempts.Record(ctx, int64(attempts), otelmetric.WithAttributes(attribute.String("category", category)))
	}
}

func (o *Observability) RecordDegradation(ctx context.Context, category, code string) {
	if o == nil || o.degradations == nil {
		return
	}
	o.degradations.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("category", category),
		attribute.String("code", code),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
