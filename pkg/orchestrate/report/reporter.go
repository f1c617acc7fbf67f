// Package report builds the consolidated result delivered to completion
// listeners once a job reaches a terminal state.
package report

import (
	"fmt"
	"time"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// ResultReporter renders a JobReport from a terminal JobExecution. The report
// always renders, whether the job completed, failed or timed out, so callers
// can always distinguish succeeded, failed and skipped items.
type ResultReporter struct{}

// NewResultReporter creates a new ResultReporter.
func NewResultReporter() *ResultReporter {
	return &ResultReporter{}
}

// Report builds the consolidated report for the job.
func (r *ResultReporter) Report(jobExecution *model.JobExecution) model.JobReport {
	counts := jobExecution.Aggregate

	batches := make([]model.BatchReport, 0, len(jobExecution.Batches))
	for _, b := range jobExecution.Batches {
		batches = append(batches, model.BatchReport{
			Index:        b.Index,
			TaskID:       b.TaskID,
			Status:       b.Status,
			Counts:       b.Counts,
			ErrorMessage: b.ErrorMessage,
			Reconciled:   b.Reconciled,
		})
	}

	severity := classify(jobExecution.Status, counts)

	return model.JobReport{
		JobExecutionID: jobExecution.ID,
		JobName:        jobExecution.JobName,
		Status:         jobExecution.Status,
		Severity:       severity,
		Counts:         counts,
		Batches:        batches,
		Failures:       jobExecution.Failures,
		Message:        message(jobExecution.Status, severity, counts),
		Duration:       duration(jobExecution),
	}
}

// classify maps the terminal state and item outcomes onto a severity.
//
// A job that had items but processed none of them is reported as
// informational rather than successful: "nothing to do" is not the same
// outcome as "everything worked".
func classify(status model.JobStatus, counts model.ItemCounts) model.ReportSeverity {
	switch status {
	case model.JobFailed, model.JobTimedOut:
		return model.SeverityWarning
	}
	if counts.Processed() == 0 {
		return model.SeverityInfo
	}
	if counts.Failed > 0 {
		return model.SeverityWarning
	}
	return model.SeveritySuccess
}

// message renders the one-line human-readable summary.
func message(status model.JobStatus, severity model.ReportSeverity, counts model.ItemCounts) string {
	switch {
	case status == model.JobTimedOut:
		return fmt.Sprintf("timed out with %d of %d items settled", counts.Processed(), counts.Total)
	case status == model.JobFailed && counts.Processed() == 0:
		return "job failed before any items were processed"
	case severity == model.SeverityInfo:
		return "nothing to do"
	}

	msg := fmt.Sprintf("%d succeeded, %d failed", counts.Completed, counts.Failed)
	if counts.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", counts.Skipped)
	}
	return msg
}

func duration(jobExecution *model.JobExecution) time.Duration {
	if jobExecution.EndTime == nil {
		return 0
	}
	return jobExecution.EndTime.Sub(jobExecution.StartTime)
}
