package test

import (
	"context"
	"fmt"
	"sync"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
)

// PollStep is one scripted status observation: either a status or an error.
type PollStep struct {
	Status model.TaskStatus
	Err    error
}

// ScriptedWorkerClient is a deterministic port.WorkerClient for scheduler
// tests. Each submission is assigned a sequential task ID and replays a
// per-batch script of poll steps; once a script is exhausted its last step
// repeats. All methods are safe for concurrent use.
type ScriptedWorkerClient struct {
	mu sync.Mutex

	// Scripts maps batch index (submission order) to its poll steps.
	scripts map[int][]PollStep
	// SubmitErrs maps batch index to a submission error, if any.
	submitErrs map[int]error

	submissions int
	taskBatch   map[string]int // task ID to batch index
	pollCursor  map[string]int
	pollCounts  map[string]int

	// MaxInFlight tracks the peak number of submitted-but-unsettled tasks,
	// used to assert the concurrency ceiling.
	maxInFlight int
	inFlight    int
}

// NewScriptedWorkerClient creates an empty scripted client. Configure it with
// ScriptBatch and FailSubmit before use.
func NewScriptedWorkerClient() *ScriptedWorkerClient {
	return &ScriptedWorkerClient{
		scripts:    make(map[int][]PollStep),
		submitErrs: make(map[int]error),
		taskBatch:  make(map[string]int),
		pollCursor: make(map[string]int),
		pollCounts: make(map[string]int),
	}
}

// ScriptBatch sets the poll steps replayed for the nth submitted batch.
func (c *ScriptedWorkerClient) ScriptBatch(batchIndex int, steps ...PollStep) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[batchIndex] = steps
}

// FailSubmit makes the nth submission return err instead of a receipt.
func (c *ScriptedWorkerClient) FailSubmit(batchIndex int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitErrs[batchIndex] = err
}

// Submit assigns a sequential task ID keyed by submission order.
func (c *ScriptedWorkerClient) Submit(ctx context.Context, items model.WorkItemList, opts port.SubmitOptions) (model.SubmitReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.submissions
	c.submissions++

	if err := c.submitErrs[idx]; err != nil {
		return model.SubmitReceipt{}, err
	}

	taskID := fmt.Sprintf("task-%d", idx)
	c.taskBatch[taskID] = idx
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	return model.SubmitReceipt{TaskID: taskID, TotalItems: len(items)}, nil
}

// Status replays the next scripted step for the task.
func (c *ScriptedWorkerClient) Status(ctx context.Context, taskID string) (model.TaskStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.taskBatch[taskID]
	if !ok {
		return model.TaskStatus{Phase: model.TaskNotFound}, nil
	}
	c.pollCounts[taskID]++

	steps := c.scripts[idx]
	if len(steps) == 0 {
		return model.TaskStatus{Phase: model.TaskProcessing}, nil
	}

	cursor := c.pollCursor[taskID]
	if cursor >= len(steps) {
		cursor = len(steps) - 1
	} else {
		c.pollCursor[taskID] = cursor + 1
	}

	step := steps[cursor]
	if step.Err == nil && step.Status.Phase.IsTerminal() && c.inFlight > 0 {
		c.inFlight--
	}
	return step.Status, step.Err
}

// Submissions returns how many batches were submitted.
func (c *ScriptedWorkerClient) Submissions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submissions
}

// PollCount returns how many times the given task was polled.
func (c *ScriptedWorkerClient) PollCount(taskID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollCounts[taskID]
}

// MaxInFlight returns the peak number of concurrently running tasks observed.
func (c *ScriptedWorkerClient) MaxInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxInFlight
}

var _ port.WorkerClient = (*ScriptedWorkerClient)(nil)
