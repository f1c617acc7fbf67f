package usecase

import (
	"context"
	"fmt"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	job "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
	exception "github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// SimpleJobExplorer is a simple implementation of the JobExplorer interface.
// It queries orchestration metadata using a JobRepository.
type SimpleJobExplorer struct {
	jobRepository job.JobRepository
}

// Verify that SimpleJobExplorer implements the JobExplorer interface.
var _ JobExplorer = (*SimpleJobExplorer)(nil)

// NewSimpleJobExplorer creates a new instance of SimpleJobExplorer.
func NewSimpleJobExplorer(jobRepository job.JobRepository) *SimpleJobExplorer {
	return &SimpleJobExplorer{
		jobRepository: jobRepository,
	}
}

// GetJobExecution retrieves a JobExecution by its ID.
func (e *SimpleJobExplorer) GetJobExecution(ctx context.Context, executionID string) (*model.JobExecution, error) {
	jobExecution, err := e.jobRepository.FindJobExecutionByID(ctx, executionID)
	if err != nil {
		return nil, exception.NewBatchError("job_explorer", fmt.Sprintf("Failed to retrieve JobExecution (ID: %s)", executionID), err, false, false)
	}
	logger.Debugf("Retrieved JobExecution (ID: %s) from JobRepository.", executionID)
	return jobExecution, nil
}

// ListJobExecutions returns all executions of the named job, most recent first.
func (e *SimpleJobExplorer) ListJobExecutions(ctx context.Context, jobName string) ([]*model.JobExecution, error) {
	jobExecutions, err := e.jobRepository.FindJobExecutionsByName(ctx, jobName)
	if err != nil {
		return nil, exception.NewBatchError("job_explorer", fmt.Sprintf("Failed to retrieve JobExecutions for job '%s'", jobName), err, false, false)
	}
	logger.Debugf("Retrieved %d JobExecutions for job '%s'.", len(jobExecutions), jobName)
	return jobExecutions, nil
}

// ListRunningJobExecutions returns all executions not yet in a terminal state.
func (e *SimpleJobExplorer) ListRunningJobExecutions(ctx context.Context) ([]*model.JobExecution, error) {
	jobExecutions, err := e.jobRepository.FindRunningJobExecutions(ctx)
	if err != nil {
		return nil, exception.NewBatchError("job_explorer", "Failed to retrieve running JobExecutions", err, false, false)
	}
	return jobExecutions, nil
}
