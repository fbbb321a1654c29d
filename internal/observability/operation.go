package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gezibash/arc-bench"

// Operation tracks one benchmark with a span, logger context, and timing.
type Operation struct {
	ctx     context.Context
	span    trace.Span
	metrics *Metrics
	name    string
	start   time.Time
	logger  *slog.Logger
}

// StartOperation begins tracking an operation. The returned context carries
// the span so log records emitted under it get trace ids.
func StartOperation(ctx context.Context, m *Metrics, name string, attrs ...attribute.KeyValue) (*Operation, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
	logger := slog.Default().With("benchmark", name)
	logger.DebugContext(ctx, "benchmark started")

	return &Operation{
		ctx:     ctx,
		span:    span,
		metrics: m,
		name:    name,
		start:   time.Now(),
		logger:  logger,
	}, ctx
}

// Measured records the measured part of a successful run.
func (o *Operation) Measured(elapsed time.Duration, throughput float64, passes int) {
	o.span.SetAttributes(
		attribute.Float64("bench.elapsed_seconds", elapsed.Seconds()),
		attribute.Float64("bench.throughput", throughput),
		attribute.Int("bench.passes", passes),
	)
	if o.metrics == nil {
		return
	}
	o.metrics.Elapsed.WithLabelValues(o.name).Set(elapsed.Seconds())
	o.metrics.Throughput.WithLabelValues(o.name).Set(throughput)
	o.metrics.Passes.WithLabelValues(o.name).Add(float64(passes))
}

// Failed records the phase a failed run stopped in. The phase is attached
// to the log record End writes.
func (o *Operation) Failed(phase string) {
	o.logger = o.logger.With("phase", phase)
	o.span.SetAttributes(attribute.String("bench.failed_phase", phase))
	if o.metrics != nil {
		o.metrics.FailuresTotal.WithLabelValues(o.name, phase).Inc()
	}
}

// End finishes the operation, recording duration and status.
func (o *Operation) End(err error) {
	duration := time.Since(o.start).Seconds()
	status := "ok"
	if err != nil {
		status = "error"
		o.logger.ErrorContext(o.ctx, "benchmark failed", "error", err, "duration", duration)
	} else {
		o.logger.DebugContext(o.ctx, "benchmark completed", "duration", duration)
	}

	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()
	if o.metrics == nil {
		return
	}
	o.metrics.OperationDuration.WithLabelValues(o.name, status).Observe(duration)
	o.metrics.OperationTotal.WithLabelValues(o.name, status).Inc()
}
