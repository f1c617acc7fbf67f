package model

import "time"

// ProgressSnapshot is one job-level progress observation delivered to
// progress listeners while a job runs, and once more at termination.
type ProgressSnapshot struct {
	JobExecutionID string  `json:"job_execution_id"`
	JobName        string  `json:"job_name"`
	Percent        float64 `json:"percent"`
	Completed      int     `json:"completed"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	TotalItems     int     `json:"total_items"`
	BatchesDone    int     `json:"batches_done"`
	BatchesTotal   int     `json:"batches_total"`
	// Stage is the human-readable sub-status, "batch i/n" for multi-batch
	// jobs and "item i/n" for single-batch jobs.
	Stage string `json:"stage"`
	// Terminal is set on the final snapshot emitted at job termination.
	Terminal bool `json:"terminal"`
}

// ReportSeverity classifies the overall outcome of a job.
type ReportSeverity string

const (
	// SeveritySuccess means every processed item succeeded.
	SeveritySuccess ReportSeverity = "success"
	// SeverityWarning means some items or batches failed.
	SeverityWarning ReportSeverity = "warning"
	// SeverityInfo means there was nothing to do despite a non-empty item list.
	SeverityInfo ReportSeverity = "info"
)

// String returns the string representation of the ReportSeverity.
func (s ReportSeverity) String() string {
	return string(s)
}

// BatchReport is the per-batch breakdown row of a JobReport.
type BatchReport struct {
	Index        int         `json:"index"`
	TaskID       string      `json:"task_id,omitempty"`
	Status       BatchStatus `json:"status"`
	Counts       ItemCounts  `json:"counts"`
	ErrorMessage string      `json:"error,omitempty"`
	Reconciled   bool        `json:"reconciled,omitempty"`
}

// JobReport is the consolidated result built once a job reaches a terminal state.
// It always renders, whether the job completed, failed or timed out, so the
// caller can distinguish succeeded, failed and skipped counts and decide on
// resubmission of just the failed items.
type JobReport struct {
	JobExecutionID string         `json:"job_execution_id"`
	JobName        string         `json:"job_name"`
	Status         JobStatus      `json:"status"`
	Severity       ReportSeverity `json:"severity"`
	Counts         ItemCounts     `json:"counts"`
	Batches        []BatchReport  `json:"batches"`
	Failures       FailureList    `json:"failures,omitempty"`
	Message        string         `json:"message"`
	Duration       time.Duration  `json:"duration"`
}
