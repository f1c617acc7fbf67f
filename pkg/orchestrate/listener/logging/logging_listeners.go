package logging

import (
	"context"

	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// --- Job Execution Listener ---

type LoggingJobListener struct{}

func NewLoggingJobListener() port.JobExecutionListener {
	return &LoggingJobListener{}
}

func (l *LoggingJobListener) BeforeJob(ctx context.Context, jobExecution *model.JobExecution) {
	logger.Infof("JobExecutionListener: BeforeJob - JobName: %s, ID: %s, Items: %d", jobExecution.JobName, jobExecution.ID, jobExecution.TotalItems())
}

func (l *LoggingJobListener) AfterJob(ctx context.Context, jobExecution *model.JobExecution) {
	logger.Infof("JobExecutionListener: AfterJob - JobName: %s, Status: %s, Completed: %d, Failed: %d, Skipped: %d",
		jobExecution.JobName, jobExecution.Status, jobExecution.Aggregate.Completed, jobExecution.Aggregate.Failed, jobExecution.Aggregate.Skipped)
}

var _ port.JobExecutionListener = (*LoggingJobListener)(nil)

// --- Batch Execution Listener ---

type LoggingBatchListener struct{}

func NewLoggingBatchListener() port.BatchExecutionListener {
	return &LoggingBatchListener{}
}

func (l *LoggingBatchListener) OnBatchSubmitted(ctx context.Context, jobExecution *model.JobExecution, batch *model.Batch) {
	logger.Infof("BatchExecutionListener: OnBatchSubmitted - JobName: %s, Batch: %d, TaskID: %s, Items: %d",
		jobExecution.JobName, batch.Index, batch.TaskID, len(batch.Items))
}

func (l *LoggingBatchListener) OnBatchTerminal(ctx context.Context, jobExecution *model.JobExecution, batch *model.Batch) {
	if batch.Status == model.BatchFailed {
		logger.Warnf("BatchExecutionListener: OnBatchTerminal - JobName: %s, Batch: %d, Status: %s, Error: %s",
			jobExecution.JobName, batch.Index, batch.Status, batch.ErrorMessage)
		return
	}
	logger.Infof("BatchExecutionListener: OnBatchTerminal - JobName: %s, Batch: %d, Status: %s, Completed: %d, Failed: %d",
		jobExecution.JobName, batch.Index, batch.Status, batch.Counts.Completed, batch.Counts.Failed)
}

var _ port.BatchExecutionListener = (*LoggingBatchListener)(nil)
