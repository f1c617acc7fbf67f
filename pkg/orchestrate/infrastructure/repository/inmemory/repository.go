// Package inmemory provides an in-memory implementation of the JobRepository
// interface. It stores all job executions in maps within memory, suitable for
// testing and for callers that do not need persistence across restarts.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	"github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
)

// InMemoryJobRepository is an in-memory implementation of the JobRepository interface.
type InMemoryJobRepository struct {
	jobExecutions map[string]*model.JobExecution
	mu            sync.RWMutex // Mutex to protect concurrent access to the map.
}

// NewInMemoryJobRepository creates and initializes a new instance of InMemoryJobRepository.
func NewInMemoryJobRepository() *InMemoryJobRepository {
	return &InMemoryJobRepository{
		jobExecutions: make(map[string]*model.JobExecution),
	}
}

// SaveJobExecution persists a new JobExecution.
// It returns an error if a JobExecution with the same ID already exists.
func (r *InMemoryJobRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobExecutions[jobExecution.ID]; exists {
		return fmt.Errorf("JobExecution with ID %s already exists", jobExecution.ID)
	}
	r.jobExecutions[jobExecution.ID] = clone(jobExecution)
	return nil
}

// UpdateJobExecution updates an existing JobExecution.
// It returns an error if the JobExecution with the given ID is not found.
func (r *InMemoryJobRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobExecutions[jobExecution.ID]; !exists {
		return fmt.Errorf("JobExecution with ID %s not found for update", jobExecution.ID)
	}
	r.jobExecutions[jobExecution.ID] = clone(jobExecution)
	return nil
}

// FindJobExecutionByID finds a JobExecution by its ID.
// It returns repository.ErrJobExecutionNotFound if no execution exists.
func (r *InMemoryJobRepository) FindJobExecutionByID(ctx context.Context, id string) (*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobExecution, ok := r.jobExecutions[id]
	if !ok {
		return nil, repository.ErrJobExecutionNotFound
	}
	return clone(jobExecution), nil
}

// FindJobExecutionsByName returns all executions of the named job, most recent first.
func (r *InMemoryJobRepository) FindJobExecutionsByName(ctx context.Context, jobName string) ([]*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var executions []*model.JobExecution
	for _, je := range r.jobExecutions {
		if je.JobName == jobName {
			executions = append(executions, clone(je))
		}
	}

	// Sort by CreateTime in descending order (latest first).
	sort.Slice(executions, func(i, j int) bool {
		return executions[j].CreateTime.Before(executions[i].CreateTime)
	})
	return executions, nil
}

// FindRunningJobExecutions returns all executions that have not reached a terminal state.
func (r *InMemoryJobRepository) FindRunningJobExecutions(ctx context.Context) ([]*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var executions []*model.JobExecution
	for _, je := range r.jobExecutions {
		if !je.Status.IsFinished() {
			executions = append(executions, clone(je))
		}
	}
	sort.Slice(executions, func(i, j int) bool {
		return executions[j].CreateTime.Before(executions[i].CreateTime)
	})
	return executions, nil
}

// Close releases resources used by the repository.
// As an in-memory repository, it holds no external resources, so this method always returns nil.
func (r *InMemoryJobRepository) Close() error {
	return nil
}

// clone deep copies a JobExecution so callers can never mutate stored state
// through a returned pointer.
func clone(je *model.JobExecution) *model.JobExecution {
	cloned := *je
	cloned.Items = append(model.WorkItemList(nil), je.Items...)
	cloned.Failures = append(model.FailureList(nil), je.Failures...)
	cloned.Batches = make(model.BatchList, 0, len(je.Batches))
	for _, b := range je.Batches {
		clonedBatch := *b
		clonedBatch.Items = append(model.WorkItemList(nil), b.Items...)
		cloned.Batches = append(cloned.Batches, &clonedBatch)
	}
	return &cloned
}

// Verify that InMemoryJobRepository satisfies the repository.JobRepository interface.
var _ repository.JobRepository = (*InMemoryJobRepository)(nil)
