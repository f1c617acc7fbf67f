package metrics

import (
	"context"
	"time"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// NoOpRecorder is an implementation of Recorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpRecorder struct{}

// NewNoOpRecorder creates a new instance of NoOpRecorder.
func NewNoOpRecorder() Recorder {
	return &NoOpRecorder{}
}

// RecordJobStart does nothing.
func (r *NoOpRecorder) RecordJobStart(ctx context.Context, execution *model.JobExecution) {}

// RecordJobEnd does nothing.
func (r *NoOpRecorder) RecordJobEnd(ctx context.Context, execution *model.JobExecution) {}

// RecordBatchSubmitted does nothing.
func (r *NoOpRecorder) RecordBatchSubmitted(ctx context.Context, jobName string) {}

// RecordBatchEnd does nothing.
func (r *NoOpRecorder) RecordBatchEnd(ctx context.Context, jobName string, batch *model.Batch) {}

// RecordPollAttempt does nothing.
func (r *NoOpRecorder) RecordPollAttempt(ctx context.Context, jobName string) {}

// RecordDuration does nothing.
func (r *NoOpRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}

var _ Recorder = (*NoOpRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

// StartJobSpan starts a Span for a JobExecution.
func (t *NoOpTracer) StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func()) {
	return ctx, func() {}
}

// StartBatchSpan starts a Span for a Batch.
func (t *NoOpTracer) StartBatchSpan(ctx context.Context, execution *model.JobExecution, batch *model.Batch) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError records an error in the current Span.
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

// RecordEvent records an event in the current Span.
func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
