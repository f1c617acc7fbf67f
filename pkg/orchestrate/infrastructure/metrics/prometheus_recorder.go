package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	metrics "github.com/lumapix/darkroom/pkg/orchestrate/core/metrics"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.Recorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Job Metrics
	jobDurationSeconds *prometheus.HistogramVec
	jobStatusCounter   *prometheus.CounterVec

	// Batch Metrics
	batchSubmittedCounter *prometheus.CounterVec
	batchStatusCounter    *prometheus.CounterVec
	batchItemsCounter     *prometheus.CounterVec

	// Poll Metrics
	pollAttemptsCounter *prometheus.CounterVec

	// Generic operation durations
	operationDurationSeconds *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() metrics.Recorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "darkroom_job_duration_seconds",
			Help:    "Duration of orchestrated job executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status"}),
		jobStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "darkroom_job_status_total",
			Help: "Total number of job executions by status.",
		}, []string{"job_name", "status"}),
		batchSubmittedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "darkroom_batch_submitted_total",
			Help: "Total number of batches submitted to the remote worker.",
		}, []string{"job_name"}),
		batchStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "darkroom_batch_status_total",
			Help: "Total number of batches reaching a terminal state, by status.",
		}, []string{"job_name", "status"}),
		batchItemsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "darkroom_batch_items_total",
			Help: "Total item outcomes reported by terminal batches.",
		}, []string{"job_name", "outcome"}),
		pollAttemptsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "darkroom_poll_attempts_total",
			Help: "Total consumed job-level poll attempts.",
		}, []string{"job_name"}),
		operationDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "darkroom_operation_duration_seconds",
			Help:    "Duration of individual orchestration operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
	}

	// Register all metrics with the registry.
	registry.MustRegister(r.jobDurationSeconds)
	registry.MustRegister(r.jobStatusCounter)
	registry.MustRegister(r.batchSubmittedCounter)
	registry.MustRegister(r.batchStatusCounter)
	registry.MustRegister(r.batchItemsCounter)
	registry.MustRegister(r.pollAttemptsCounter)
	registry.MustRegister(r.operationDurationSeconds)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordJobStart records the start of a JobExecution.
func (r *PrometheusRecorder) RecordJobStart(ctx context.Context, execution *model.JobExecution) {
	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()
	logger.Debugf("Metrics: Job '%s' started.", execution.JobName)
}

// RecordJobEnd records the end of a JobExecution.
func (r *PrometheusRecorder) RecordJobEnd(ctx context.Context, execution *model.JobExecution) {
	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()

	if execution.EndTime == nil {
		return
	}
	duration := execution.EndTime.Sub(execution.StartTime).Seconds()

	r.jobDurationSeconds.WithLabelValues(
		execution.JobName,
		execution.Status.String(),
	).Observe(duration)

	logger.Debugf("Metrics: Job '%s' ended. Duration: %.3fs", execution.JobName, duration)
}

// RecordBatchSubmitted records the successful submission of a batch.
func (r *PrometheusRecorder) RecordBatchSubmitted(ctx context.Context, jobName string) {
	r.batchSubmittedCounter.WithLabelValues(jobName).Inc()
}

// RecordBatchEnd records a batch reaching a terminal state with its item outcomes.
func (r *PrometheusRecorder) RecordBatchEnd(ctx context.Context, jobName string, batch *model.Batch) {
	r.batchStatusCounter.WithLabelValues(jobName, batch.Status.String()).Inc()

	r.batchItemsCounter.WithLabelValues(jobName, "completed").Add(float64(batch.Counts.Completed))
	r.batchItemsCounter.WithLabelValues(jobName, "failed").Add(float64(batch.Counts.Failed))
	r.batchItemsCounter.WithLabelValues(jobName, "skipped").Add(float64(batch.Counts.Skipped))
}

// RecordPollAttempt records one consumed job-level poll attempt.
func (r *PrometheusRecorder) RecordPollAttempt(ctx context.Context, jobName string) {
	r.pollAttemptsCounter.WithLabelValues(jobName).Inc()
}

// RecordDuration records the execution time of a specific operation.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	status := tags["status"]
	if status == "" {
		status = "unknown"
	}
	r.operationDurationSeconds.WithLabelValues(name, status).Observe(duration.Seconds())
}

var _ metrics.Recorder = (*PrometheusRecorder)(nil)
