package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumapix/darkroom/pkg/orchestrate/aggregate"
	cfg "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	metrics "github.com/lumapix/darkroom/pkg/orchestrate/core/metrics"
	"github.com/lumapix/darkroom/pkg/orchestrate/infrastructure/repository/inmemory"
	"github.com/lumapix/darkroom/pkg/orchestrate/partition"
	"github.com/lumapix/darkroom/pkg/orchestrate/report"
	"github.com/lumapix/darkroom/pkg/orchestrate/scheduler"
	orchestratetest "github.com/lumapix/darkroom/pkg/orchestrate/test"
)

type launcherFixture struct {
	launcher   *SimpleJobLauncher
	registry   *CallbackRegistry
	client     *orchestratetest.ScriptedWorkerClient
	repository *inmemory.InMemoryJobRepository
}

func newLauncherFixture(t *testing.T) *launcherFixture {
	t.Helper()
	client := orchestratetest.NewScriptedWorkerClient()
	repo := inmemory.NewInMemoryJobRepository()
	sched := scheduler.NewScheduler(
		client,
		partition.NewSizedPartitioner(),
		aggregate.NewProgressAggregator(),
		report.NewResultReporter(),
		repo,
		nil,
		metrics.NewNoOpRecorder(),
		metrics.NewNoOpTracer(),
	)
	registry := NewCallbackRegistry()
	sched.RegisterProgressListener(registry.AsProgressListener())
	sched.RegisterCompletionListener(registry.AsCompletionListener())

	defaults := cfg.BatchConfig{
		JobName:            "face-cluster",
		BatchSize:          10,
		ConcurrencyLimit:   2,
		PollIntervalMs:     1,
		MaxPollAttempts:    100,
		ProgressCapPercent: 95,
	}
	return &launcherFixture{
		launcher:   NewSimpleJobLauncher(repo, sched, defaults),
		registry:   registry,
		client:     client,
		repository: repo,
	}
}

func items(n int) model.WorkItemList {
	out := make(model.WorkItemList, n)
	for i := range out {
		out[i] = model.WorkItem(string(rune('a' + i)))
	}
	return out
}

func awaitReport(t *testing.T, reports <-chan model.JobReport) model.JobReport {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the job report")
		return model.JobReport{}
	}
}

func TestLaunch_RunsJobToCompletion(t *testing.T) {
	f := newLauncherFixture(t)
	f.client.ScriptBatch(0, orchestratetest.PollStep{Status: model.TaskStatus{
		Phase:  model.TaskCompleted,
		Counts: model.ItemCounts{Completed: 5, Total: 5},
	}})

	je, err := f.launcher.Launch(context.Background(), "", items(5), model.JobConfig{})
	require.NoError(t, err)
	require.NotNil(t, je)
	assert.Equal(t, "face-cluster", je.JobName)

	reports := make(chan model.JobReport, 1)
	f.registry.OnComplete(je.ID, func(r model.JobReport) { reports <- r })

	got := awaitReport(t, reports)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.Equal(t, model.SeveritySuccess, got.Severity)

	stored, err := f.repository.FindJobExecutionByID(context.Background(), je.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, stored.Status)
}

func TestLaunch_AppliesConfiguredDefaults(t *testing.T) {
	f := newLauncherFixture(t)
	f.client.ScriptBatch(0, orchestratetest.PollStep{Status: model.TaskStatus{Phase: model.TaskCompleted}})

	je, err := f.launcher.Launch(context.Background(), "", items(3), model.JobConfig{})
	require.NoError(t, err)

	assert.Equal(t, 10, je.Config.BatchSize)
	assert.Equal(t, 2, je.Config.ConcurrencyLimit)
	assert.Equal(t, time.Millisecond, je.Config.PollInterval)
	assert.Equal(t, 100, je.Config.MaxPollAttempts)
	assert.Equal(t, 95, je.Config.ProgressCapPercent)
}

func TestLaunch_ExplicitConfigWinsOverDefaults(t *testing.T) {
	f := newLauncherFixture(t)
	f.client.ScriptBatch(0, orchestratetest.PollStep{Status: model.TaskStatus{Phase: model.TaskCompleted}})

	je, err := f.launcher.Launch(context.Background(), "dedupe", items(3), model.JobConfig{
		BatchSize:        3,
		ConcurrencyLimit: 1,
		PollInterval:     2 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, "dedupe", je.JobName)
	assert.Equal(t, 3, je.Config.BatchSize)
	assert.Equal(t, 1, je.Config.ConcurrencyLimit)
	assert.Equal(t, 2*time.Millisecond, je.Config.PollInterval)
}

func TestLaunch_WithoutJobNameFails(t *testing.T) {
	f := newLauncherFixture(t)
	f.launcher.defaults.JobName = ""

	_, err := f.launcher.Launch(context.Background(), "", items(1), model.JobConfig{})
	assert.Error(t, err)
}

func TestStop_CancelsARunningJob(t *testing.T) {
	f := newLauncherFixture(t)
	// The task never settles on its own.
	f.client.ScriptBatch(0, orchestratetest.PollStep{Status: model.TaskStatus{Phase: model.TaskProcessing}})

	je, err := f.launcher.Launch(context.Background(), "face-cluster", items(5), model.JobConfig{MaxPollAttempts: -1})
	require.NoError(t, err)

	reports := make(chan model.JobReport, 1)
	f.registry.OnComplete(je.ID, func(r model.JobReport) { reports <- r })

	// Give the scheduler a moment to submit, then stop the job.
	time.Sleep(20 * time.Millisecond)
	require.True(t, f.launcher.Stop(je.ID))

	got := awaitReport(t, reports)
	assert.Equal(t, model.JobFailed, got.Status)
}

func TestStop_UnknownExecutionReturnsFalse(t *testing.T) {
	f := newLauncherFixture(t)
	assert.False(t, f.launcher.Stop("no-such-execution"))
}

func TestCallbackRegistry_ProgressDelivery(t *testing.T) {
	registry := NewCallbackRegistry()
	je := model.NewJobExecution("face-cluster", items(2), model.JobConfig{})

	var got []model.ProgressSnapshot
	registry.OnProgress(je.ID, func(s model.ProgressSnapshot) { got = append(got, s) })

	listener := registry.AsProgressListener()
	listener.OnProgress(context.Background(), je, model.ProgressSnapshot{Percent: 50})
	listener.OnProgress(context.Background(), je, model.ProgressSnapshot{Percent: 95})

	require.Len(t, got, 2)
	assert.Equal(t, 95.0, got[1].Percent)
}

func TestCallbackRegistry_CompletionIsOneShot(t *testing.T) {
	registry := NewCallbackRegistry()
	je := model.NewJobExecution("face-cluster", items(2), model.JobConfig{})

	calls := 0
	registry.OnComplete(je.ID, func(model.JobReport) { calls++ })

	listener := registry.AsCompletionListener()
	listener.OnJobReport(context.Background(), je, model.JobReport{})
	listener.OnJobReport(context.Background(), je, model.JobReport{})

	assert.Equal(t, 1, calls)
}
