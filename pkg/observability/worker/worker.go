package worker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumenter traces long running jobs such as recording processing and
// counts them on the global meter.
type Instrumenter struct {
	tracer      trace.Tracer
	inFlight    metric.Int64UpDownCounter
	jobDuration metric.Float64Histogram
	jobsTotal   metric.Int64Counter
}

// NewInstrumenter uses the global tracer and meter providers, so it works
// whether or not export is enabled.
func NewInstrumenter(serviceName string) (*Instrumenter, error) {
	meter := otel.Meter(serviceName)

	inFlight, err := meter.Int64UpDownCounter(
		"ruleout_jobs_in_flight",
		metric.WithDescription("Jobs currently running"),
	)
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram(
		"ruleout_job_duration_seconds",
		metric.WithDescription("Job duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	jobsTotal, err := meter.Int64Counter(
		"ruleout_jobs_total",
		metric.WithDescription("Jobs run, by type and status"),
	)
	if err != nil {
		return nil, err
	}

	return &Instrumenter{
		tracer:      otel.Tracer(serviceName),
		inFlight:    inFlight,
		jobDuration: jobDuration,
		jobsTotal:   jobsTotal,
	}, nil
}

// Run executes fn inside a span named "job.<jobType>".
func (w *Instrumenter) Run(ctx context.Context, jobType string, fn func(context.Context) error) error {
	typeAttr := attribute.String("job.type", jobType)
	w.inFlight.Add(ctx, 1, metric.WithAttributes(typeAttr))
	defer w.inFlight.Add(ctx, -1, metric.WithAttributes(typeAttr))

	ctx, span := w.tracer.Start(ctx, "job."+jobType, trace.WithAttributes(typeAttr))
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	attrs := metric.WithAttributes(typeAttr, attribute.String("status", status))
	w.jobDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	w.jobsTotal.Add(ctx, 1, attrs)
	return err
}
