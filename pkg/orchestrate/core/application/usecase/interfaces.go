package usecase

import (
	"context"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// JobLauncher starts orchestrated jobs.
type JobLauncher interface {
	// Launch creates a JobExecution for the given items, persists it and
	// starts the scheduler asynchronously. It returns the JobExecution
	// immediately; the error indicates a failure of the launch process
	// itself, not of the job's execution.
	Launch(ctx context.Context, jobName string, items model.WorkItemList, config model.JobConfig) (*model.JobExecution, error)

	// Stop requests cancellation of a running job execution. It returns false
	// when no running execution with the given ID is known.
	Stop(executionID string) bool
}

// JobExplorer provides read-only access to job executions.
type JobExplorer interface {
	// GetJobExecution retrieves a JobExecution by ID.
	GetJobExecution(ctx context.Context, executionID string) (*model.JobExecution, error)
	// ListJobExecutions returns all executions of the named job, most recent first.
	ListJobExecutions(ctx context.Context, jobName string) ([]*model.JobExecution, error)
	// ListRunningJobExecutions returns all executions not yet in a terminal state.
	ListRunningJobExecutions(ctx context.Context) ([]*model.JobExecution, error)
}
