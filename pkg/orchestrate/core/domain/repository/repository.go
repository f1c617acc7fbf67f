// Package repository defines the persistence port for job executions.
// Implementations live under infrastructure/repository.
package repository

import (
	"context"
	"errors"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// ErrJobExecutionNotFound is returned when a JobExecution does not exist.
var ErrJobExecutionNotFound = errors.New("job execution not found")

// JobRepository persists job executions and their batches so that partially
// finished jobs remain inspectable after the fact.
type JobRepository interface {
	// SaveJobExecution persists a new JobExecution.
	SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error
	// UpdateJobExecution updates an existing JobExecution, including its batches.
	UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error
	// FindJobExecutionByID finds a JobExecution by its ID.
	FindJobExecutionByID(ctx context.Context, id string) (*model.JobExecution, error)
	// FindJobExecutionsByName returns all executions of the named job,
	// most recent first.
	FindJobExecutionsByName(ctx context.Context, jobName string) ([]*model.JobExecution, error)
	// FindRunningJobExecutions returns all executions that have not reached a
	// terminal state.
	FindRunningJobExecutions(ctx context.Context) ([]*model.JobExecution, error)
	// Close releases any resources held by the repository.
	Close() error
}
