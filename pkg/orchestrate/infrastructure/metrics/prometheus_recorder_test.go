package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

func newTestRecorder(t *testing.T) *PrometheusRecorder {
	t.Helper()
	r, ok := NewPrometheusRecorder().(*PrometheusRecorder)
	require.True(t, ok)
	return r
}

func TestPrometheusRecorder_RecordsBatchOutcomes(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	batch := model.NewBatch(0, []model.WorkItem{"p1", "p2", "p3"})
	batch.MarkAsSubmitted("task-1")
	batch.MarkAsCompleted(model.ItemCounts{Completed: 2, Failed: 1, Total: 3})

	r.RecordBatchSubmitted(ctx, "clusterFaces")
	r.RecordBatchEnd(ctx, "clusterFaces", batch)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.batchSubmittedCounter.WithLabelValues("clusterFaces")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.batchStatusCounter.WithLabelValues("clusterFaces", "COMPLETED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.batchItemsCounter.WithLabelValues("clusterFaces", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.batchItemsCounter.WithLabelValues("clusterFaces", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.batchItemsCounter.WithLabelValues("clusterFaces", "skipped")))
}

func TestPrometheusRecorder_RecordsJobLifecycle(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	je := model.NewJobExecution("clusterFaces", model.WorkItemList{"p1"}, model.JobConfig{})
	r.RecordJobStart(ctx, je)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobStatusCounter.WithLabelValues("clusterFaces", "CREATED")))

	je.MarkAsRunning()
	je.MarkAsCompleted()
	r.RecordJobEnd(ctx, je)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobStatusCounter.WithLabelValues("clusterFaces", "COMPLETED")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.jobDurationSeconds))
}

func TestPrometheusRecorder_RecordsPollAttempts(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	r.RecordPollAttempt(ctx, "clusterFaces")
	r.RecordPollAttempt(ctx, "clusterFaces")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pollAttemptsCounter.WithLabelValues("clusterFaces")))
}

func TestPrometheusRecorder_RecordDurationUsesStatusTag(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	r.RecordDuration(ctx, "submit", 150*time.Millisecond, map[string]string{"status": "success"})
	r.RecordDuration(ctx, "submit", 80*time.Millisecond, nil)

	assert.Equal(t, 2, testutil.CollectAndCount(r.operationDurationSeconds))
}
