package metrics

import (
	"context"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// Tracer is an abstract interface for tracing job and batch execution.
// Implementations map spans onto their tracing backend (e.g., OpenTelemetry).
type Tracer interface {
	// StartJobSpan starts a new span for a JobExecution. The returned
	// function ends the span.
	StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func())

	// StartBatchSpan starts a new span for one batch of a JobExecution.
	StartBatchSpan(ctx context.Context, execution *model.JobExecution, batch *model.Batch) (context.Context, func())

	// RecordError records an error in the current span.
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
