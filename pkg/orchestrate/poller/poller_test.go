package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	orchestratetest "github.com/lumapix/darkroom/pkg/orchestrate/test"
)

func submitOne(t *testing.T, client port.WorkerClient) string {
	t.Helper()
	receipt, err := client.Submit(context.Background(), model.WorkItemList{"a"}, port.SubmitOptions{})
	require.NoError(t, err)
	return receipt.TaskID
}

func collect(t *testing.T, p *TaskPoller, taskID string, events chan Event) []Event {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Watch(context.Background(), 0, taskID, events)
	}()

	var got []Event
	for {
		select {
		case ev := <-events:
			got = append(got, ev)
			if ev.Err == nil && ev.Status.Phase.IsTerminal() {
				<-done
				return got
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for poll events")
		}
	}
}

func TestTaskPoller_PollsUntilTerminal(t *testing.T) {
	client := orchestratetest.NewScriptedWorkerClient()
	client.ScriptBatch(0,
		orchestratetest.PollStep{Status: model.TaskStatus{Phase: model.TaskProcessing}},
		orchestratetest.PollStep{Status: model.TaskStatus{Phase: model.TaskProcessing}},
		orchestratetest.PollStep{Status: model.TaskStatus{
			Phase:  model.TaskCompleted,
			Counts: model.ItemCounts{Completed: 1, Total: 1},
		}},
	)
	taskID := submitOne(t, client)

	p := NewTaskPoller(client, time.Millisecond)
	events := make(chan Event, 8)

	got := collect(t, p, taskID, events)

	require.Len(t, got, 3)
	assert.Equal(t, model.TaskProcessing, got[0].Status.Phase)
	assert.Equal(t, model.TaskProcessing, got[1].Status.Phase)
	assert.Equal(t, model.TaskCompleted, got[2].Status.Phase)
	assert.Equal(t, 1, got[2].Status.Counts.Completed)
	assert.Equal(t, 3, client.PollCount(taskID))
}

func TestTaskPoller_ReportsPollErrorsAndKeepsGoing(t *testing.T) {
	client := orchestratetest.NewScriptedWorkerClient()
	client.ScriptBatch(0,
		orchestratetest.PollStep{Err: errors.New("connection reset")},
		orchestratetest.PollStep{Status: model.TaskStatus{Phase: model.TaskFailed, ErrorMessage: "worker crashed"}},
	)
	taskID := submitOne(t, client)

	p := NewTaskPoller(client, time.Millisecond)
	events := make(chan Event, 8)

	got := collect(t, p, taskID, events)

	require.Len(t, got, 2)
	assert.Error(t, got[0].Err)
	assert.NoError(t, got[1].Err)
	assert.Equal(t, model.TaskFailed, got[1].Status.Phase)
}

func TestTaskPoller_StopsOnNotFound(t *testing.T) {
	client := orchestratetest.NewScriptedWorkerClient()
	client.ScriptBatch(0,
		orchestratetest.PollStep{Status: model.TaskStatus{Phase: model.TaskNotFound}},
	)
	taskID := submitOne(t, client)

	p := NewTaskPoller(client, time.Millisecond)
	events := make(chan Event, 8)

	got := collect(t, p, taskID, events)

	require.Len(t, got, 1)
	assert.Equal(t, model.TaskNotFound, got[0].Status.Phase)
}

func TestTaskPoller_CancelStopsWatch(t *testing.T) {
	client := orchestratetest.NewScriptedWorkerClient()
	// No terminal step: the task stays processing forever.
	client.ScriptBatch(0,
		orchestratetest.PollStep{Status: model.TaskStatus{Phase: model.TaskProcessing}},
	)
	taskID := submitOne(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	p := NewTaskPoller(client, time.Millisecond)
	events := make(chan Event, 64)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Watch(ctx, 0, taskID, events)
	}()

	// Let a few polls happen, then cancel.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
	assert.Greater(t, client.PollCount(taskID), 0)
}
