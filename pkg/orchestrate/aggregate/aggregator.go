// Package aggregate folds per-batch item outcomes into job-level counts and
// renders progress snapshots for listeners.
package aggregate

import (
	"fmt"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// ProgressAggregator derives job-level progress from batch state. It holds no
// state of its own; the scheduler calls it after every mutation.
type ProgressAggregator struct{}

// NewProgressAggregator creates a new ProgressAggregator.
func NewProgressAggregator() *ProgressAggregator {
	return &ProgressAggregator{}
}

// Fold recomputes the job aggregate from the current batch counts and stores
// it on the JobExecution. Batch counts include live observations for running
// tasks, so the aggregate moves while batches are still processing.
//
// Items of a FAILED batch that the worker never attributed an outcome are
// counted as failed: once a job is terminal every item has exactly one
// outcome and the outcomes sum to the job's item total.
func (a *ProgressAggregator) Fold(jobExecution *model.JobExecution) model.ItemCounts {
	counts := model.ItemCounts{Total: jobExecution.TotalItems()}
	for _, b := range jobExecution.Batches {
		counts.Completed += b.Counts.Completed
		counts.Failed += b.Counts.Failed
		counts.Skipped += b.Counts.Skipped

		if b.Status == model.BatchFailed {
			if unattributed := len(b.Items) - b.Counts.Processed(); unattributed > 0 {
				counts.Failed += unattributed
			}
		}
	}
	jobExecution.Aggregate = counts
	return counts
}

// Snapshot renders the current progress of the job for listeners.
//
// The percentage is processed items over total items, capped below the
// configured ceiling while the job runs; the jump to 100 is reserved for
// termination so consumers never display a finished bar for a running job.
func (a *ProgressAggregator) Snapshot(jobExecution *model.JobExecution) model.ProgressSnapshot {
	counts := a.Fold(jobExecution)
	finished := jobExecution.Status.IsFinished()

	snapshot := model.ProgressSnapshot{
		JobExecutionID: jobExecution.ID,
		JobName:        jobExecution.JobName,
		Completed:      counts.Completed,
		Failed:         counts.Failed,
		Skipped:        counts.Skipped,
		TotalItems:     counts.Total,
		BatchesDone:    jobExecution.TerminalBatches(),
		BatchesTotal:   len(jobExecution.Batches),
		Stage:          stageFor(jobExecution),
		Terminal:       finished,
	}

	switch {
	case finished:
		snapshot.Percent = 100
	case counts.Total == 0:
		snapshot.Percent = 0
	default:
		percent := 100 * float64(counts.Processed()) / float64(counts.Total)
		if ceiling := float64(jobExecution.Config.EffectiveProgressCap()); percent > ceiling {
			percent = ceiling
		}
		snapshot.Percent = percent
	}
	return snapshot
}

// stageFor renders the human-readable sub-status. Multi-batch jobs report the
// batch currently worked on, single-batch jobs report item-level progress.
func stageFor(jobExecution *model.JobExecution) string {
	total := len(jobExecution.Batches)
	if total == 0 {
		return ""
	}

	if total > 1 {
		current := jobExecution.TerminalBatches()
		if current < total {
			current++
		}
		return fmt.Sprintf("batch %d/%d", current, total)
	}

	items := jobExecution.TotalItems()
	current := jobExecution.Aggregate.Processed()
	if current < items {
		current++
	}
	return fmt.Sprintf("item %d/%d", current, items)
}
