// Package port defines the core interfaces (ports) for the orchestration engine.
// These interfaces abstract the engine's capabilities and dependencies,
// allowing for flexible implementation and testing.
package port

import (
	"context"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// SubmitOptions carries per-submission options forwarded to the remote worker.
type SubmitOptions struct {
	// JobName identifies the originating job for worker-side bookkeeping.
	JobName string
	// Params are worker-specific knobs (e.g., face-match threshold) passed
	// through opaquely.
	Params map[string]interface{}
}

// WorkerClient is the wire contract consumed by the orchestrator.
//
// Submit is not guaranteed idempotent; the scheduler never resubmits
// identical items concurrently.
type WorkerClient interface {
	// Submit sends one batch of items to the remote worker and returns the
	// task handle. A transport failure here is a submission error: the batch
	// never reached the worker and no items are attributed.
	Submit(ctx context.Context, items model.WorkItemList, opts SubmitOptions) (model.SubmitReceipt, error)
	// Status fetches one status observation for the task, normalized into the
	// model.TaskStatus tagged form at the wire boundary.
	Status(ctx context.Context, taskID string) (model.TaskStatus, error)
}

// Partitioner splits an ordered item list into batches.
type Partitioner interface {
	// Partition returns the batches in item order. A batchSize of zero or
	// less yields a single batch containing all items; the final batch may be
	// smaller than batchSize. Deterministic, no side effects.
	Partition(items model.WorkItemList, batchSize int) model.BatchList
}

// Reconciler re-fetches the authoritative resource state after a task
// vanished server-side (not_found). It is invoked at most once per job.
type Reconciler interface {
	Reconcile(ctx context.Context, jobExecution *model.JobExecution) error
}

// JobExecutionListener observes job lifecycle transitions.
type JobExecutionListener interface {
	BeforeJob(ctx context.Context, jobExecution *model.JobExecution)
	AfterJob(ctx context.Context, jobExecution *model.JobExecution)
}

// BatchExecutionListener observes batch lifecycle transitions.
type BatchExecutionListener interface {
	OnBatchSubmitted(ctx context.Context, jobExecution *model.JobExecution, batch *model.Batch)
	OnBatchTerminal(ctx context.Context, jobExecution *model.JobExecution, batch *model.Batch)
}

// ProgressListener receives job-level progress snapshots.
type ProgressListener interface {
	OnProgress(ctx context.Context, jobExecution *model.JobExecution, snapshot model.ProgressSnapshot)
}

// CompletionListener receives the consolidated report once a job terminates.
type CompletionListener interface {
	OnJobReport(ctx context.Context, jobExecution *model.JobExecution, report model.JobReport)
}
