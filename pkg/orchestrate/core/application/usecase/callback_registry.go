package usecase

import (
	"context"
	"sync"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// ProgressFunc receives progress snapshots for one job execution.
type ProgressFunc func(snapshot model.ProgressSnapshot)

// CompletionFunc receives the consolidated report for one job execution.
type CompletionFunc func(report model.JobReport)

// CallbackRegistry routes scheduler notifications to per-execution callbacks
// registered by callers. It implements both the progress and completion
// listener ports, so registering it once on the scheduler covers both.
//
// Completion callbacks are one-shot: after delivery the execution's entries
// are dropped.
type CallbackRegistry struct {
	mu         sync.Mutex
	onProgress map[string][]ProgressFunc
	onComplete map[string][]CompletionFunc
	// delivered holds reports that arrived before any completion callback was
	// registered, so a caller attaching late still gets the result.
	delivered map[string]model.JobReport
}

// NewCallbackRegistry creates an empty CallbackRegistry.
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{
		onProgress: make(map[string][]ProgressFunc),
		onComplete: make(map[string][]CompletionFunc),
		delivered:  make(map[string]model.JobReport),
	}
}

// OnProgress registers a progress callback for the given execution ID.
func (r *CallbackRegistry) OnProgress(executionID string, fn ProgressFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onProgress[executionID] = append(r.onProgress[executionID], fn)
}

// OnComplete registers a completion callback for the given execution ID.
// If the execution already reported, the callback fires immediately.
func (r *CallbackRegistry) OnComplete(executionID string, fn CompletionFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	if report, done := r.delivered[executionID]; done {
		delete(r.delivered, executionID)
		r.mu.Unlock()
		fn(report)
		return
	}
	r.onComplete[executionID] = append(r.onComplete[executionID], fn)
	r.mu.Unlock()
}

// Drop removes all callbacks registered for the given execution ID.
func (r *CallbackRegistry) Drop(executionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.onProgress, executionID)
	delete(r.onComplete, executionID)
	delete(r.delivered, executionID)
}

// OnProgress implements port.ProgressListener.
func (r *CallbackRegistry) OnProgressSnapshot(ctx context.Context, jobExecution *model.JobExecution, snapshot model.ProgressSnapshot) {
	r.mu.Lock()
	callbacks := append([]ProgressFunc(nil), r.onProgress[jobExecution.ID]...)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(snapshot)
	}
}

// OnJobReport implements port.CompletionListener. It delivers the report and
// then drops every callback registered for the execution.
func (r *CallbackRegistry) OnJobReport(ctx context.Context, jobExecution *model.JobExecution, report model.JobReport) {
	r.mu.Lock()
	callbacks := append([]CompletionFunc(nil), r.onComplete[jobExecution.ID]...)
	delete(r.onProgress, jobExecution.ID)
	delete(r.onComplete, jobExecution.ID)
	if len(callbacks) == 0 {
		r.delivered[jobExecution.ID] = report
	}
	r.mu.Unlock()

	logger.Debugf("CallbackRegistry: Delivering report for JobExecution (ID: %s) to %d callbacks.", jobExecution.ID, len(callbacks))
	for _, fn := range callbacks {
		fn(report)
	}
}

// listenerAdapter bridges the registry onto the listener ports.
type listenerAdapter struct {
	registry *CallbackRegistry
}

func (a listenerAdapter) OnProgress(ctx context.Context, je *model.JobExecution, snapshot model.ProgressSnapshot) {
	a.registry.OnProgressSnapshot(ctx, je, snapshot)
}

func (a listenerAdapter) OnJobReport(ctx context.Context, je *model.JobExecution, report model.JobReport) {
	a.registry.OnJobReport(ctx, je, report)
}

// AsProgressListener exposes the registry as a port.ProgressListener.
func (r *CallbackRegistry) AsProgressListener() port.ProgressListener {
	return listenerAdapter{registry: r}
}

// AsCompletionListener exposes the registry as a port.CompletionListener.
func (r *CallbackRegistry) AsCompletionListener() port.CompletionListener {
	return listenerAdapter{registry: r}
}
