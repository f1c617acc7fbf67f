// Package scheduler drives a job execution from partitioning through
// submission, polling and termination.
//
// All job and batch state is mutated by the single goroutine running
// [Scheduler.Run]. Per-batch pollers only perform IO and deliver their
// observations over a channel, so no mutex guards the execution state.
package scheduler

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/lumapix/darkroom/pkg/orchestrate/aggregate"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	repository "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
	metrics "github.com/lumapix/darkroom/pkg/orchestrate/core/metrics"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	"github.com/lumapix/darkroom/pkg/orchestrate/poller"
	"github.com/lumapix/darkroom/pkg/orchestrate/report"
	exception "github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

const moduleName = "scheduler"

// Scheduler orchestrates one job execution at a time per Run call: it
// partitions the items, keeps at most the configured number of batches
// submitted, folds poll observations into the execution state and settles
// the job into exactly one terminal status.
type Scheduler struct {
	client        port.WorkerClient
	partitioner   port.Partitioner
	aggregator    *aggregate.ProgressAggregator
	reporter      *report.ResultReporter
	jobRepository repository.JobRepository
	reconciler    port.Reconciler
	recorder      metrics.Recorder
	tracer        metrics.Tracer

	jobListeners        []port.JobExecutionListener
	batchListeners      []port.BatchExecutionListener
	progressListeners   []port.ProgressListener
	completionListeners []port.CompletionListener
}

// NewScheduler creates a new Scheduler. The reconciler may be nil, in which
// case not_found reconciliation degrades to settling the batch locally.
func NewScheduler(
	client port.WorkerClient,
	partitioner port.Partitioner,
	aggregator *aggregate.ProgressAggregator,
	reporter *report.ResultReporter,
	jobRepository repository.JobRepository,
	reconciler port.Reconciler,
	recorder metrics.Recorder,
	tracer metrics.Tracer,
) *Scheduler {
	return &Scheduler{
		client:        client,
		partitioner:   partitioner,
		aggregator:    aggregator,
		reporter:      reporter,
		jobRepository: jobRepository,
		reconciler:    reconciler,
		recorder:      recorder,
		tracer:        tracer,
	}
}

// RegisterJobListener adds a job lifecycle listener.
func (s *Scheduler) RegisterJobListener(l port.JobExecutionListener) {
	s.jobListeners = append(s.jobListeners, l)
}

// RegisterBatchListener adds a batch lifecycle listener.
func (s *Scheduler) RegisterBatchListener(l port.BatchExecutionListener) {
	s.batchListeners = append(s.batchListeners, l)
}

// RegisterProgressListener adds a progress listener.
func (s *Scheduler) RegisterProgressListener(l port.ProgressListener) {
	s.progressListeners = append(s.progressListeners, l)
}

// RegisterCompletionListener adds a completion listener.
func (s *Scheduler) RegisterCompletionListener(l port.CompletionListener) {
	s.completionListeners = append(s.completionListeners, l)
}

// run-scoped state for one Run call.
type run struct {
	je          *model.JobExecution
	events      chan poller.Event
	pollCtx     context.Context
	cancelPolls context.CancelFunc
	taskPoller  *poller.TaskPoller
	nextPending int
	reconciled  bool
	timedOut    bool
}

// Run executes the job to a terminal state and returns an error when the job
// ends FAILED or TIMED_OUT. Cancelling ctx aborts the job; in-flight remote
// tasks are left to the worker and the job is marked FAILED.
func (s *Scheduler) Run(ctx context.Context, jobExecution *model.JobExecution) error {
	ctx, endSpan := s.tracer.StartJobSpan(ctx, jobExecution)
	defer endSpan()

	s.recorder.RecordJobStart(ctx, jobExecution)
	for _, l := range s.jobListeners {
		l.BeforeJob(ctx, jobExecution)
	}

	if jobExecution.Status == model.JobCreated {
		jobExecution.MarkAsRunning()
	}

	if len(jobExecution.Batches) == 0 {
		jobExecution.Batches = s.partitioner.Partition(jobExecution.Items, jobExecution.Config.BatchSize)
		logger.Infof("Scheduler: Job '%s' (ID: %s) partitioned into %d batches of up to %d items.",
			jobExecution.JobName, jobExecution.ID, len(jobExecution.Batches), jobExecution.Config.BatchSize)
	}
	s.persist(ctx, jobExecution)

	pollCtx, cancelPolls := context.WithCancel(ctx)
	defer cancelPolls()

	r := &run{
		je: jobExecution,
		// Buffered so pollers never block on a busy scheduler for long.
		events:      make(chan poller.Event, len(jobExecution.Batches)+1),
		pollCtx:     pollCtx,
		cancelPolls: cancelPolls,
		taskPoller:  poller.NewTaskPoller(s.client, jobExecution.Config.PollInterval),
	}

	s.fillSubmissionWindow(ctx, r)
	s.notifyProgress(ctx, jobExecution)

	for jobExecution.TerminalBatches() < len(jobExecution.Batches) && !r.timedOut {
		if jobExecution.ActiveBatches() == 0 && r.nextPending >= len(jobExecution.Batches) {
			// Every remaining batch failed at submission; nothing to wait for.
			break
		}
		select {
		case ev := <-r.events:
			s.handleEvent(ctx, r, ev)
		case <-ctx.Done():
			return s.finalizeCancelled(ctx, r)
		}
	}

	return s.finalize(ctx, r)
}

// fillSubmissionWindow submits pending batches until the concurrency ceiling
// is reached or no pending batch remains. A submission failure settles that
// batch as FAILED and moves on: one bad batch never takes down its siblings.
func (s *Scheduler) fillSubmissionWindow(ctx context.Context, r *run) {
	je := r.je
	limit := je.Config.EffectiveConcurrencyLimit()

	for r.nextPending < len(je.Batches) && je.ActiveBatches() < limit {
		batch := je.Batches[r.nextPending]
		r.nextPending++

		receipt, err := s.client.Submit(ctx, batch.Items, port.SubmitOptions{JobName: je.JobName})
		if err != nil {
			subErr := err
			if !exception.IsSubmissionError(err) {
				subErr = exception.NewSubmissionError(moduleName,
					fmt.Sprintf("batch %d submission failed", batch.Index), err)
			}
			logger.Errorf("Scheduler: Batch %d of job '%s' failed at submission: %v", batch.Index, je.JobName, err)
			batch.MarkAsFailed(subErr, model.ItemCounts{})
			je.AddFailureException(subErr)
			s.tracer.RecordError(ctx, moduleName, subErr)
			s.settleBatch(ctx, r, batch)
			continue
		}

		batch.MarkAsSubmitted(receipt.TaskID)
		logger.Infof("Scheduler: Batch %d of job '%s' submitted as task '%s' (%d items).",
			batch.Index, je.JobName, receipt.TaskID, len(batch.Items))
		s.recorder.RecordBatchSubmitted(ctx, je.JobName)
		for _, l := range s.batchListeners {
			l.OnBatchSubmitted(ctx, je, batch)
		}
		s.persist(ctx, je)

		go r.taskPoller.Watch(r.pollCtx, batch.Index, receipt.TaskID, r.events)
	}
}

// handleEvent folds one poll observation into the execution state.
// Observations for already terminal batches are dropped, so duplicate
// deliveries cannot regress progress.
func (s *Scheduler) handleEvent(ctx context.Context, r *run, ev poller.Event) {
	je := r.je
	if ev.BatchIndex < 0 || ev.BatchIndex >= len(je.Batches) {
		logger.Warnf("Scheduler: Dropping poll event for unknown batch index %d.", ev.BatchIndex)
		return
	}
	batch := je.Batches[ev.BatchIndex]
	if batch.Status.IsTerminal() {
		logger.Debugf("Scheduler: Ignoring poll event for settled batch %d.", batch.Index)
		return
	}

	if ev.Err != nil {
		logger.Warnf("Scheduler: Poll for batch %d (task '%s') failed: %v", batch.Index, ev.TaskID, ev.Err)
		s.consumePollAttempt(ctx, r)
		return
	}

	switch ev.Status.Phase {
	case model.TaskProcessing:
		if ev.Status.Counts.Processed() > 0 {
			live := ev.Status.Counts
			live.Total = len(batch.Items)
			batch.Counts = live
		}
		s.consumePollAttempt(ctx, r)
		s.notifyProgress(ctx, je)

	case model.TaskCompleted:
		batch.MarkAsCompleted(ev.Status.Counts)
		logger.Infof("Scheduler: Batch %d of job '%s' completed (%d ok, %d failed, %d skipped).",
			batch.Index, je.JobName, batch.Counts.Completed, batch.Counts.Failed, batch.Counts.Skipped)
		s.settleBatch(ctx, r, batch)

	case model.TaskFailed:
		execErr := exception.NewExecutionError(moduleName,
			fmt.Sprintf("batch %d failed remotely: %s", batch.Index, ev.Status.ErrorMessage), nil)
		batch.MarkAsFailed(execErr, ev.Status.Counts)
		je.AddFailureException(execErr)
		s.tracer.RecordError(ctx, moduleName, execErr)
		logger.Warnf("Scheduler: Batch %d of job '%s' failed remotely: %s", batch.Index, je.JobName, ev.Status.ErrorMessage)
		s.settleBatch(ctx, r, batch)

	case model.TaskNotFound:
		s.reconcile(ctx, r, batch)
		s.settleBatch(ctx, r, batch)
	}
}

// reconcile settles a batch whose remote task vanished. The worker cleans up
// finished tasks aggressively, so a vanished task is treated as done and the
// authoritative state is re-fetched once per job.
func (s *Scheduler) reconcile(ctx context.Context, r *run, batch *model.Batch) {
	je := r.je
	logger.Infof("Scheduler: Task '%s' for batch %d of job '%s' no longer exists; reconciling.",
		batch.TaskID, batch.Index, je.JobName)

	if s.reconciler != nil && !r.reconciled {
		r.reconciled = true
		if err := s.reconciler.Reconcile(ctx, je); err != nil {
			// Reconciliation is best effort and never fails the batch.
			logger.Warnf("Scheduler: Reconciliation fetch for job '%s' failed: %v", je.JobName, err)
		}
	}
	batch.MarkAsReconciled()
	s.tracer.RecordEvent(ctx, "batch.reconciled", map[string]interface{}{
		"batch.index": batch.Index,
		"task.id":     batch.TaskID,
	})
}

// settleBatch runs the common bookkeeping after a batch reached a terminal
// state: metrics, listeners, persistence, a progress notification and a
// refill of the submission window.
func (s *Scheduler) settleBatch(ctx context.Context, r *run, batch *model.Batch) {
	je := r.je
	s.recorder.RecordBatchEnd(ctx, je.JobName, batch)
	for _, l := range s.batchListeners {
		l.OnBatchTerminal(ctx, je, batch)
	}
	s.fillSubmissionWindow(ctx, r)
	s.persist(ctx, je)
	s.notifyProgress(ctx, je)
}

// consumePollAttempt charges one poll against the job-level budget and trips
// the timeout when the budget is exhausted.
func (s *Scheduler) consumePollAttempt(ctx context.Context, r *run) {
	je := r.je
	je.PollAttempts++
	s.recorder.RecordPollAttempt(ctx, je.JobName)

	if je.Config.MaxPollAttempts > 0 && je.PollAttempts >= je.Config.MaxPollAttempts {
		logger.Warnf("Scheduler: Job '%s' exhausted its poll budget (%d attempts).", je.JobName, je.PollAttempts)
		r.timedOut = true
	}
}

// notifyProgress delivers a fresh snapshot to every progress listener.
func (s *Scheduler) notifyProgress(ctx context.Context, je *model.JobExecution) {
	if len(s.progressListeners) == 0 {
		s.aggregator.Fold(je)
		return
	}
	snapshot := s.aggregator.Snapshot(je)
	for _, l := range s.progressListeners {
		l.OnProgress(ctx, je, snapshot)
	}
}

// finalize settles the job into its terminal status, emits the final
// snapshot and report, and returns the job-level error.
func (s *Scheduler) finalize(ctx context.Context, r *run) error {
	je := r.je
	r.cancelPolls()
	s.aggregator.Fold(je)

	var jobErr error
	switch {
	case r.timedOut:
		jobErr = exception.NewTimeoutError(moduleName,
			fmt.Sprintf("job '%s' timed out after %d poll attempts", je.JobName, je.PollAttempts))
		je.MarkAsTimedOut(jobErr)

	case len(je.Batches) > 0 && s.completedBatches(je) == 0:
		// Every batch failed: the job as a whole failed.
		combined := s.combinedFailures(je)
		jobErr = exception.NewExecutionError(moduleName,
			fmt.Sprintf("all %d batches of job '%s' failed", len(je.Batches), je.JobName), combined)
		je.MarkAsFailed(jobErr)

	default:
		// At least one batch settled successfully (or there was nothing to
		// run). Partial failures are reflected in the report severity, not in
		// the job status.
		je.MarkAsCompleted()
	}

	s.aggregator.Fold(je)
	s.persist(ctx, je)
	s.notifyProgress(ctx, je)

	jobReport := s.reporter.Report(je)
	for _, l := range s.completionListeners {
		l.OnJobReport(ctx, je, jobReport)
	}
	for _, l := range s.jobListeners {
		l.AfterJob(ctx, je)
	}
	s.recorder.RecordJobEnd(ctx, je)
	logger.Infof("Scheduler: Job '%s' (ID: %s) finished with status %s: %s",
		je.JobName, je.ID, je.Status, jobReport.Message)
	return jobErr
}

// finalizeCancelled marks the job FAILED after its context was cancelled.
func (s *Scheduler) finalizeCancelled(ctx context.Context, r *run) error {
	je := r.je
	r.cancelPolls()

	cancelErr := exception.NewBatchError(moduleName,
		fmt.Sprintf("job '%s' was cancelled", je.JobName), ctx.Err(), false, false)
	je.MarkAsFailed(cancelErr)
	s.aggregator.Fold(je)

	// Persistence and listeners still run, but with a context that is no
	// longer cancelled.
	detached := context.WithoutCancel(ctx)
	s.persist(detached, je)
	s.notifyProgress(detached, je)

	jobReport := s.reporter.Report(je)
	for _, l := range s.completionListeners {
		l.OnJobReport(detached, je, jobReport)
	}
	for _, l := range s.jobListeners {
		l.AfterJob(detached, je)
	}
	s.recorder.RecordJobEnd(detached, je)
	logger.Warnf("Scheduler: Job '%s' (ID: %s) cancelled.", je.JobName, je.ID)
	return cancelErr
}

func (s *Scheduler) completedBatches(je *model.JobExecution) int {
	n := 0
	for _, b := range je.Batches {
		if b.Status == model.BatchCompleted {
			n++
		}
	}
	return n
}

// combinedFailures joins all recorded failure messages into one error.
func (s *Scheduler) combinedFailures(je *model.JobExecution) error {
	var combined *multierror.Error
	for _, msg := range je.Failures {
		combined = multierror.Append(combined, fmt.Errorf("%s", msg))
	}
	return combined.ErrorOrNil()
}

// persist writes the execution state. Persistence failures are logged, not
// propagated: losing a checkpoint must not fail a running job.
func (s *Scheduler) persist(ctx context.Context, je *model.JobExecution) {
	if err := s.jobRepository.UpdateJobExecution(ctx, je); err != nil {
		logger.Errorf("Scheduler: Failed to persist JobExecution (ID: %s): %v", je.ID, err)
	}
}
