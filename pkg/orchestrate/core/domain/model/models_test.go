package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_LifecycleTransitions(t *testing.T) {
	b := NewBatch(0, WorkItemList{"photo-001", "photo-002"})
	assert.Equal(t, BatchPending, b.Status)
	assert.Equal(t, 2, b.Counts.Total)

	b.MarkAsSubmitted("task-42")
	assert.Equal(t, BatchSubmitted, b.Status)
	assert.Equal(t, "task-42", b.TaskID)
	require.NotNil(t, b.SubmitTime)

	b.MarkAsCompleted(ItemCounts{Completed: 2})
	assert.Equal(t, BatchCompleted, b.Status)
	assert.True(t, b.Counts.IsSettled())
	require.NotNil(t, b.EndTime)
}

func TestBatch_PendingCanShortCircuitToFailed(t *testing.T) {
	b := NewBatch(3, WorkItemList{"photo-001"})

	b.MarkAsFailed(errors.New("connection refused"), ItemCounts{})

	assert.Equal(t, BatchFailed, b.Status)
	assert.Empty(t, b.TaskID)
	assert.Equal(t, 0, b.Counts.Completed)
	assert.Equal(t, 1, b.Counts.Total)
	assert.Contains(t, b.ErrorMessage, "connection refused")
}

func TestBatch_TerminalStateIsNeverRevisited(t *testing.T) {
	b := NewBatch(0, WorkItemList{"photo-001"})
	b.MarkAsSubmitted("task-1")
	b.MarkAsCompleted(ItemCounts{Completed: 1})

	assert.Error(t, b.TransitionTo(BatchFailed))
	assert.Error(t, b.TransitionTo(BatchSubmitted))
	assert.Equal(t, BatchCompleted, b.Status)
}

func TestBatch_InvalidTransitionRejected(t *testing.T) {
	b := NewBatch(0, WorkItemList{"photo-001"})

	// PENDING cannot jump straight to COMPLETED.
	assert.Error(t, b.TransitionTo(BatchCompleted))
	assert.Equal(t, BatchPending, b.Status)
}

func TestBatch_MarkAsReconciledAttributesAllItems(t *testing.T) {
	b := NewBatch(1, WorkItemList{"photo-001", "photo-002", "photo-003"})
	b.MarkAsSubmitted("task-7")

	b.MarkAsReconciled()

	assert.Equal(t, BatchCompleted, b.Status)
	assert.True(t, b.Reconciled)
	assert.Equal(t, 3, b.Counts.Completed)
	assert.True(t, b.Counts.IsSettled())
}

func TestBatch_FailureCountsNormalizedToBatchSize(t *testing.T) {
	b := NewBatch(0, makeBatchItems(4))
	b.MarkAsSubmitted("task-9")

	b.MarkAsFailed(errors.New("worker crashed"), ItemCounts{Completed: 1, Failed: 1})

	assert.Equal(t, 4, b.Counts.Total)
	assert.Equal(t, 1, b.Counts.Completed)
	assert.Equal(t, 1, b.Counts.Failed)
	assert.False(t, b.Counts.IsSettled())
}

func makeBatchItems(n int) WorkItemList {
	items := make(WorkItemList, n)
	for i := range items {
		items[i] = WorkItem(string(rune('a' + i)))
	}
	return items
}

func TestItemCounts_AddFolds(t *testing.T) {
	var agg ItemCounts
	agg.Add(ItemCounts{Completed: 3, Failed: 1, Total: 5})
	agg.Add(ItemCounts{Completed: 2, Skipped: 3, Total: 5})

	assert.Equal(t, 5, agg.Completed)
	assert.Equal(t, 1, agg.Failed)
	assert.Equal(t, 3, agg.Skipped)
	assert.Equal(t, 9, agg.Processed())
	assert.Equal(t, 10, agg.Total)
	assert.False(t, agg.IsSettled())
}

func TestJobExecution_LifecycleTransitions(t *testing.T) {
	je := NewJobExecution("clusterFaces", makeBatchItems(3), JobConfig{})
	assert.Equal(t, JobCreated, je.Status)
	assert.NotEmpty(t, je.ID)
	assert.Equal(t, 3, je.Aggregate.Total)

	je.MarkAsRunning()
	assert.Equal(t, JobRunning, je.Status)

	je.MarkAsCompleted()
	assert.Equal(t, JobCompleted, je.Status)
	assert.True(t, je.Status.IsFinished())
	require.NotNil(t, je.EndTime)
}

func TestJobExecution_TimedOutPreservesAggregate(t *testing.T) {
	je := NewJobExecution("clusterFaces", makeBatchItems(6), JobConfig{})
	je.MarkAsRunning()
	je.Aggregate = ItemCounts{Completed: 3, Total: 6}

	je.MarkAsTimedOut(errors.New("poll budget of 10 attempts exhausted"))

	assert.Equal(t, JobTimedOut, je.Status)
	assert.Equal(t, 3, je.Aggregate.Completed)
	require.Len(t, je.Failures, 1)
	assert.Contains(t, je.Failures[0], "poll budget")
}

func TestJobExecution_TerminalStateRejectsTransitions(t *testing.T) {
	je := NewJobExecution("clusterFaces", nil, JobConfig{})
	je.MarkAsRunning()
	je.MarkAsFailed(errors.New("boom"))

	assert.Error(t, je.TransitionTo(JobCompleted))
	assert.Error(t, je.TransitionTo(JobRunning))
	assert.Equal(t, JobFailed, je.Status)
}

func TestJobExecution_AddFailureExceptionDeduplicates(t *testing.T) {
	je := NewJobExecution("clusterFaces", nil, JobConfig{})

	je.AddFailureException(errors.New("worker unreachable"))
	je.AddFailureException(errors.New("worker unreachable"))
	je.AddFailureException(errors.New("task rejected"))

	assert.Len(t, je.Failures, 2)
}

func TestJobExecution_BatchCounters(t *testing.T) {
	je := NewJobExecution("clusterFaces", makeBatchItems(6), JobConfig{})
	b0 := NewBatch(0, makeBatchItems(2))
	b1 := NewBatch(1, makeBatchItems(2))
	b2 := NewBatch(2, makeBatchItems(2))
	je.AddBatch(b0)
	je.AddBatch(b1)
	je.AddBatch(b2)

	b0.MarkAsSubmitted("task-0")
	b1.MarkAsSubmitted("task-1")
	assert.Equal(t, 2, je.ActiveBatches())
	assert.Equal(t, 0, je.TerminalBatches())

	b0.MarkAsCompleted(ItemCounts{Completed: 2})
	assert.Equal(t, 1, je.ActiveBatches())
	assert.Equal(t, 1, je.TerminalBatches())
}

func TestJobConfig_Defaults(t *testing.T) {
	var cfg JobConfig
	assert.Equal(t, 1, cfg.EffectiveConcurrencyLimit())
	assert.Equal(t, 95, cfg.EffectiveProgressCap())

	cfg = JobConfig{ConcurrencyLimit: 4, ProgressCapPercent: 90}
	assert.Equal(t, 4, cfg.EffectiveConcurrencyLimit())
	assert.Equal(t, 90, cfg.EffectiveProgressCap())
}

func TestWorkItemList_ScanAndValue(t *testing.T) {
	original := WorkItemList{"photo-001", "photo-002"}
	v, err := original.Value()
	require.NoError(t, err)

	var scanned WorkItemList
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, original, scanned)

	var fromNil WorkItemList
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)

	assert.Error(t, scanned.Scan(42))
}

func TestBatchList_ScanRestoresBatchState(t *testing.T) {
	b := NewBatch(0, WorkItemList{"photo-001"})
	b.MarkAsSubmitted("task-3")
	original := BatchList{b}

	v, err := original.Value()
	require.NoError(t, err)

	var scanned BatchList
	require.NoError(t, scanned.Scan(v))
	require.Len(t, scanned, 1)
	assert.Equal(t, BatchSubmitted, scanned[0].Status)
	assert.Equal(t, "task-3", scanned[0].TaskID)
	assert.Equal(t, WorkItemList{"photo-001"}, scanned[0].Items)
}

func TestNilListsSerializeAsEmptyJSON(t *testing.T) {
	var wl WorkItemList
	v, err := wl.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var fl FailureList
	v, err = fl.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
