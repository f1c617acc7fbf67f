// Package poller watches remote tasks and streams status observations back
// to the scheduler. Pollers only perform IO; all state mutation happens on
// the scheduler side.
package poller

import (
	"context"
	"time"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// Event is one status observation for a batch's remote task. Exactly one of
// Status and Err is meaningful: when Err is non-nil the poll itself failed
// and Status must be ignored.
type Event struct {
	BatchIndex int
	TaskID     string
	Status     model.TaskStatus
	Err        error
}

// TaskPoller polls a remote task at a fixed delay until the task reaches a
// terminal phase or the context is cancelled.
//
// The delay is measured from response to next request, not request to
// request, so a slow worker lengthens the effective period instead of
// stacking requests.
type TaskPoller struct {
	client   port.WorkerClient
	interval time.Duration
}

// NewTaskPoller creates a new TaskPoller with the given poll interval.
func NewTaskPoller(client port.WorkerClient, interval time.Duration) *TaskPoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &TaskPoller{client: client, interval: interval}
}

// Watch polls the task and sends every observation, including poll failures,
// to events. It returns when the task reports a terminal phase or ctx is
// cancelled. The events channel is owned by the caller and never closed here.
func (p *TaskPoller) Watch(ctx context.Context, batchIndex int, taskID string, events chan<- Event) {
	logger.Debugf("TaskPoller: Watching task '%s' (batch %d), interval %v.", taskID, batchIndex, p.interval)

	for {
		status, err := p.client.Status(ctx, taskID)
		if ctx.Err() != nil {
			logger.Debugf("TaskPoller: Watch of task '%s' cancelled: %v", taskID, ctx.Err())
			return
		}

		select {
		case events <- Event{BatchIndex: batchIndex, TaskID: taskID, Status: status, Err: err}:
		case <-ctx.Done():
			return
		}

		if err == nil && status.Phase.IsTerminal() {
			logger.Debugf("TaskPoller: Task '%s' reached terminal phase '%s', stopping.", taskID, status.Phase)
			return
		}

		// Fixed delay, counted from the response just handled.
		select {
		case <-time.After(p.interval):
		case <-ctx.Done():
			logger.Debugf("TaskPoller: Watch of task '%s' cancelled during delay.", taskID)
			return
		}
	}
}
