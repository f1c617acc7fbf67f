package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	cfg "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	repository "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
	"github.com/lumapix/darkroom/pkg/orchestrate/scheduler"
	exception "github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// SimpleJobLauncher implements JobLauncher for in-process execution. Each
// launched job runs on its own goroutine driven by the shared Scheduler.
type SimpleJobLauncher struct {
	jobRepository repository.JobRepository
	scheduler     *scheduler.Scheduler
	defaults      cfg.BatchConfig
	// activeJobCancellations holds the cancel functions for running jobs.
	activeJobCancellations map[string]context.CancelFunc
	mu                     sync.Mutex
}

// NewSimpleJobLauncher creates a new SimpleJobLauncher. Zero-valued JobConfig
// fields are filled from the configured batch defaults at launch time.
func NewSimpleJobLauncher(
	repo repository.JobRepository,
	sched *scheduler.Scheduler,
	defaults cfg.BatchConfig,
) *SimpleJobLauncher {
	return &SimpleJobLauncher{
		jobRepository:          repo,
		scheduler:              sched,
		defaults:               defaults,
		activeJobCancellations: make(map[string]context.CancelFunc),
	}
}

// RegisterCancelFunc registers the cancel function for a running job execution.
func (l *SimpleJobLauncher) RegisterCancelFunc(executionID string, cancelFunc context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activeJobCancellations[executionID] = cancelFunc
	logger.Debugf("Registered CancelFunc for JobExecution (ID: %s).", executionID)
}

// UnregisterCancelFunc unregisters the cancel function for a running job execution.
func (l *SimpleJobLauncher) UnregisterCancelFunc(executionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.activeJobCancellations[executionID]; ok {
		delete(l.activeJobCancellations, executionID)
		logger.Debugf("Unregistered CancelFunc for JobExecution (ID: %s).", executionID)
	}
}

// Stop requests cancellation of a running job execution.
func (l *SimpleJobLauncher) Stop(executionID string) bool {
	l.mu.Lock()
	cancelFunc, ok := l.activeJobCancellations[executionID]
	l.mu.Unlock()
	if !ok {
		return false
	}
	logger.Infof("Stopping JobExecution (ID: %s).", executionID)
	cancelFunc()
	return true
}

// applyDefaults fills zero-valued JobConfig fields from the configured batch defaults.
func (l *SimpleJobLauncher) applyDefaults(config model.JobConfig) model.JobConfig {
	if config.BatchSize == 0 {
		config.BatchSize = l.defaults.BatchSize
	}
	if config.ConcurrencyLimit == 0 {
		config.ConcurrencyLimit = l.defaults.ConcurrencyLimit
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Duration(l.defaults.PollIntervalMs) * time.Millisecond
	}
	if config.MaxPollAttempts == 0 {
		config.MaxPollAttempts = l.defaults.MaxPollAttempts
	}
	if config.ProgressCapPercent == 0 {
		config.ProgressCapPercent = l.defaults.ProgressCapPercent
	}
	return config
}

// Launch creates, persists and asynchronously runs a new JobExecution.
func (l *SimpleJobLauncher) Launch(ctx context.Context, jobName string, items model.WorkItemList, config model.JobConfig) (*model.JobExecution, error) {
	const op = "SimpleJobLauncher.Launch"
	if jobName == "" {
		jobName = l.defaults.JobName
	}
	if jobName == "" {
		return nil, exception.NewBatchError(op, "job name must not be empty", nil, false, false)
	}

	jobExecution := model.NewJobExecution(jobName, items, l.applyDefaults(config))
	logger.Infof("Launching Job '%s' (Execution ID: %s) with %d items.", jobName, jobExecution.ID, len(items))

	// Detach the job's lifetime from the launch call: cancelling the request
	// context must not kill the running job, Stop does that.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.RegisterCancelFunc(jobExecution.ID, cancel)

	if err := l.jobRepository.SaveJobExecution(jobCtx, jobExecution); err != nil {
		l.UnregisterCancelFunc(jobExecution.ID)
		cancel()
		return jobExecution, exception.NewBatchError(op,
			fmt.Sprintf("failed to persist JobExecution (ID: %s) initially", jobExecution.ID), err, false, false)
	}

	go func() {
		defer cancel()
		defer l.UnregisterCancelFunc(jobExecution.ID)
		if err := l.scheduler.Run(jobCtx, jobExecution); err != nil {
			logger.Warnf("Job '%s' (Execution ID: %s) finished with error: %v", jobName, jobExecution.ID, err)
		}
	}()

	return jobExecution, nil
}

// Verify that SimpleJobLauncher satisfies the JobLauncher interface.
var _ JobLauncher = (*SimpleJobLauncher)(nil)
