package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	metrics "github.com/lumapix/darkroom/pkg/orchestrate/core/metrics"
	"github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
)

const tracerName = "github.com/lumapix/darkroom/pkg/orchestrate"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
// Spans go to whatever TracerProvider is installed globally; without one they
// are no-ops, so the tracer is always safe to wire.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a new instance of OpenTelemetryTracer.
func NewOpenTelemetryTracer() metrics.Tracer {
	return &OpenTelemetryTracer{tracer: otel.Tracer(tracerName)}
}

// StartJobSpan starts a new span for a JobExecution.
func (t *OpenTelemetryTracer) StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "darkroom.job",
		trace.WithAttributes(
			attribute.String("job.name", execution.JobName),
			attribute.String("job.execution_id", execution.ID),
			attribute.Int("job.total_items", execution.TotalItems()),
		),
	)
	return ctx, func() {
		// The terminal status is only known when the span ends.
		span.SetAttributes(
			attribute.String("job.status", execution.Status.String()),
			attribute.Int("job.poll_attempts", execution.PollAttempts),
			attribute.Int("job.items_completed", execution.Aggregate.Completed),
			attribute.Int("job.items_failed", execution.Aggregate.Failed),
			attribute.Int("job.items_skipped", execution.Aggregate.Skipped),
		)
		span.End()
	}
}

// StartBatchSpan starts a new span for one batch of a JobExecution.
func (t *OpenTelemetryTracer) StartBatchSpan(ctx context.Context, execution *model.JobExecution, batch *model.Batch) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "darkroom.batch",
		trace.WithAttributes(
			attribute.String("job.name", execution.JobName),
			attribute.Int("batch.index", batch.Index),
			attribute.Int("batch.size", len(batch.Items)),
		),
	)
	return ctx, func() {
		span.SetAttributes(
			attribute.String("batch.status", batch.Status.String()),
			attribute.String("batch.task_id", batch.TaskID),
		)
		span.End()
	}
}

// RecordError records an error in the current span.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("module", module)))
	span.SetStatus(codes.Error, exception.ExtractErrorMessage(err))
}

// RecordEvent records an event in the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, anyAttribute(k, v))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// anyAttribute converts an arbitrary value to an OTel attribute.
func anyAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
