package metrics

import (
	"context"
	"time"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// Recorder is an abstract interface for recording metrics related to job
// orchestration. It provides a standardized way to record job, batch and
// item-level events, facilitating integration with different metrics
// backends (e.g., Prometheus).
type Recorder interface {
	// RecordJobStart records the start of a JobExecution.
	RecordJobStart(ctx context.Context, execution *model.JobExecution)

	// RecordJobEnd records the end of a JobExecution, including its duration
	// and terminal status.
	RecordJobEnd(ctx context.Context, execution *model.JobExecution)

	// RecordBatchSubmitted records the successful submission of a batch.
	RecordBatchSubmitted(ctx context.Context, jobName string)

	// RecordBatchEnd records a batch reaching a terminal state, with its
	// item outcome counts.
	RecordBatchEnd(ctx context.Context, jobName string, batch *model.Batch)

	// RecordPollAttempt records one consumed job-level poll attempt.
	RecordPollAttempt(ctx context.Context, jobName string)

	// RecordDuration records the execution time of a specific operation.
	//
	// name: The name of the duration to record (e.g., "submit_duration").
	// tags: Additional attributes, e.g. `{"worker": "faces", "status": "success"}`.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
