package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"

	"github.com/google/uuid"
)

// WorkItem is the atomic unit of work processed by the remote worker,
// typically one photo identifier.
type WorkItem string

// WorkItemList is an ordered list of WorkItems.
type WorkItemList []WorkItem

// Value implements the `driver.Valuer` interface, converting the WorkItemList to a JSON string.
func (wl WorkItemList) Value() (driver.Value, error) {
	if wl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(wl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a WorkItemList.
func (wl *WorkItemList) Scan(value interface{}) error {
	if value == nil {
		*wl = make(WorkItemList, 0)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for WorkItemList: %T", value)
	}

	if len(b) == 0 {
		*wl = make(WorkItemList, 0)
		return nil
	}

	if err := json.Unmarshal(b, wl); err != nil {
		return fmt.Errorf("failed to unmarshal WorkItemList JSON: %w", err)
	}
	return nil
}

// FailureList holds a list of error messages.
type FailureList []string

// Value implements the `driver.Valuer` interface, converting FailureList to a JSON string.
func (fl FailureList) Value() (driver.Value, error) {
	if fl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(fl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to FailureList.
func (fl *FailureList) Scan(value interface{}) error {
	if value == nil {
		*fl = make(FailureList, 0)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for FailureList: %T", value)
	}

	if len(b) == 0 {
		*fl = make(FailureList, 0)
		return nil
	}

	if err := json.Unmarshal(b, fl); err != nil {
		return fmt.Errorf("failed to unmarshal FailureList JSON: %w", err)
	}
	return nil
}

// ItemCounts holds per-item outcome counts for a batch or a whole job.
// Skipped counts items the worker legitimately excluded (e.g., unsupported
// formats); they are distinct from failures.
type ItemCounts struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Total     int `json:"total"`
}

// Processed returns the number of items that reached an outcome.
func (c ItemCounts) Processed() int {
	return c.Completed + c.Failed + c.Skipped
}

// Add folds another set of counts into this one.
func (c *ItemCounts) Add(other ItemCounts) {
	c.Completed += other.Completed
	c.Failed += other.Failed
	c.Skipped += other.Skipped
	c.Total += other.Total
}

// IsSettled reports whether every item of the batch has an outcome.
func (c ItemCounts) IsSettled() bool {
	return c.Processed() == c.Total
}

// BatchStatus represents the state of a batch execution.
type BatchStatus string

const (
	BatchPending   BatchStatus = "PENDING"
	BatchSubmitted BatchStatus = "SUBMITTED"
	BatchCompleted BatchStatus = "COMPLETED"
	BatchFailed    BatchStatus = "FAILED"
)

// String returns the string representation of the BatchStatus.
func (s BatchStatus) String() string {
	return string(s)
}

// IsTerminal checks if the BatchStatus represents a terminal state.
// A terminal batch is never revisited.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case BatchCompleted, BatchFailed:
		return true
	default:
		return false
	}
}

// isValidBatchTransition checks if the state transition for a Batch is valid.
func isValidBatchTransition(current, next BatchStatus) bool {
	switch current {
	case BatchPending:
		// PENDING can transition to SUBMITTED, or short-circuit to FAILED on a
		// submission-time error before any task ID exists.
		return next == BatchSubmitted || next == BatchFailed
	case BatchSubmitted:
		return next == BatchCompleted || next == BatchFailed
	case BatchCompleted, BatchFailed:
		return false
	default:
		return false
	}
}

// Batch is an ordered subset of WorkItems submitted together as one remote task.
type Batch struct {
	// Index is the zero-based position of the batch within the job.
	Index int
	// Items are the WorkItems belonging to this batch. Each WorkItem of a job
	// belongs to exactly one batch for the lifetime of the job.
	Items WorkItemList
	// TaskID is the remote task handle. Empty until the batch is submitted.
	TaskID string
	// Status is the current state of the batch.
	Status BatchStatus
	// Counts holds the per-item outcomes reported by the worker.
	Counts ItemCounts
	// ErrorMessage carries the server-provided error text for a failed batch.
	ErrorMessage string
	// Reconciled is set when the batch was settled through a not_found
	// reconciliation rather than a completed status response.
	Reconciled  bool
	SubmitTime  *time.Time
	EndTime     *time.Time
	LastUpdated time.Time
}

// NewBatch creates a new Batch in the PENDING state.
func NewBatch(index int, items []WorkItem) *Batch {
	return &Batch{
		Index:       index,
		Items:       items,
		Status:      BatchPending,
		Counts:      ItemCounts{Total: len(items)},
		LastUpdated: time.Now(),
	}
}

// TransitionTo safely transitions the state of the Batch.
func (b *Batch) TransitionTo(newStatus BatchStatus) error {
	if !isValidBatchTransition(b.Status, newStatus) {
		return fmt.Errorf("Batch (Index: %d): Invalid state transition: %s -> %s", b.Index, b.Status, newStatus)
	}
	b.Status = newStatus
	return nil
}

// MarkAsSubmitted updates the Batch status to SUBMITTED and records the task handle.
func (b *Batch) MarkAsSubmitted(taskID string) {
	if err := b.TransitionTo(BatchSubmitted); err != nil {
		logger.Warnf("Could not update Batch (Index: %d) status to SUBMITTED: %v", b.Index, err)
		b.Status = BatchSubmitted
	}
	b.TaskID = taskID
	now := time.Now()
	b.SubmitTime = &now
	b.LastUpdated = now
}

// MarkAsCompleted updates the Batch status to COMPLETED with the worker-reported counts.
func (b *Batch) MarkAsCompleted(counts ItemCounts) {
	if err := b.TransitionTo(BatchCompleted); err != nil {
		logger.Warnf("Could not update Batch (Index: %d) status to COMPLETED: %v", b.Index, err)
		b.Status = BatchCompleted
	}
	counts.Total = len(b.Items)
	b.Counts = counts
	now := time.Now()
	b.EndTime = &now
	b.LastUpdated = now
}

// MarkAsReconciled settles the Batch as COMPLETED after a not_found poll.
// The remote task vanished, most likely cleaned up after finishing, so all
// items are attributed as completed pending a reconciliation fetch.
func (b *Batch) MarkAsReconciled() {
	b.MarkAsCompleted(ItemCounts{Completed: len(b.Items), Total: len(b.Items)})
	b.Reconciled = true
}

// MarkAsFailed updates the Batch status to FAILED and records error information.
// A submission-time failure attributes zero item outcomes; an execution failure
// may carry server-provided counts set by the caller beforehand via counts.
func (b *Batch) MarkAsFailed(err error, counts ItemCounts) {
	if terr := b.TransitionTo(BatchFailed); terr != nil {
		logger.Warnf("Could not update Batch (Index: %d) status to FAILED: %v", b.Index, terr)
		b.Status = BatchFailed
	}
	counts.Total = len(b.Items)
	b.Counts = counts
	if err != nil {
		b.ErrorMessage = exception.ExtractErrorMessage(err)
	}
	now := time.Now()
	b.EndTime = &now
	b.LastUpdated = now
}

// BatchList is the ordered list of batches belonging to a job.
type BatchList []*Batch

// Value implements the `driver.Valuer` interface, converting the BatchList to a JSON string.
func (bl BatchList) Value() (driver.Value, error) {
	if bl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(bl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a BatchList.
func (bl *BatchList) Scan(value interface{}) error {
	if value == nil {
		*bl = make(BatchList, 0)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for BatchList: %T", value)
	}

	if len(b) == 0 {
		*bl = make(BatchList, 0)
		return nil
	}

	if err := json.Unmarshal(b, bl); err != nil {
		return fmt.Errorf("failed to unmarshal BatchList JSON: %w", err)
	}
	return nil
}

// JobStatus represents the state of a job execution.
type JobStatus string

const (
	JobCreated   JobStatus = "CREATED"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobTimedOut  JobStatus = "TIMED_OUT"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsFinished checks if the JobStatus represents a terminal state.
func (s JobStatus) IsFinished() bool {
	switch s {
	case JobCompleted, JobFailed, JobTimedOut:
		return true
	default:
		return false
	}
}

// isValidJobTransition checks if the state transition for a JobExecution is valid.
func isValidJobTransition(current, next JobStatus) bool {
	switch current {
	case JobCreated:
		return next == JobRunning || next == JobFailed
	case JobRunning:
		return next == JobCompleted || next == JobFailed || next == JobTimedOut
	case JobCompleted, JobFailed, JobTimedOut:
		return false
	default:
		return false
	}
}

// JobConfig holds the per-job orchestration options supplied by the caller.
type JobConfig struct {
	// BatchSize is the number of items per batch. Zero or negative means a
	// single batch containing all items.
	BatchSize int
	// ConcurrencyLimit bounds the number of simultaneously SUBMITTED batches.
	// Zero or negative means sequential execution (limit 1).
	ConcurrencyLimit int
	// PollInterval is the fixed delay between a status response and the next poll.
	PollInterval time.Duration
	// MaxPollAttempts is the job-level ceiling on still-processing polls.
	// Zero or negative means no ceiling.
	MaxPollAttempts int
	// ProgressCapPercent caps the reported progress while any batch is
	// non-terminal, reserving the jump to 100 for job termination.
	// Zero means the default cap of 95.
	ProgressCapPercent int
}

// EffectiveConcurrencyLimit returns the concurrency limit with defaults applied.
func (c JobConfig) EffectiveConcurrencyLimit() int {
	if c.ConcurrencyLimit <= 0 {
		return 1
	}
	return c.ConcurrencyLimit
}

// EffectiveProgressCap returns the progress cap with the default applied.
func (c JobConfig) EffectiveProgressCap() int {
	if c.ProgressCapPercent <= 0 {
		return 95
	}
	return c.ProgressCapPercent
}

// JobExecution is a structure representing a single execution of an orchestrated job.
type JobExecution struct {
	ID       string
	JobName  string
	Items    WorkItemList
	Batches  BatchList
	Config   JobConfig
	Status   JobStatus
	Failures FailureList
	// Aggregate holds the job-level counts folded from terminal batches.
	Aggregate ItemCounts
	// PollAttempts is the job-level count of consumed poll attempts.
	PollAttempts int
	StartTime    time.Time
	EndTime      *time.Time
	CreateTime   time.Time
	LastUpdated  time.Time
	Version      int
}

// NewJobExecution creates a new instance of JobExecution in the CREATED state.
func NewJobExecution(jobName string, items []WorkItem, config JobConfig) *JobExecution {
	now := time.Now()
	return &JobExecution{
		ID:          NewID(),
		JobName:     jobName,
		Items:       items,
		Batches:     make(BatchList, 0),
		Config:      config,
		Status:      JobCreated,
		Failures:    make(FailureList, 0),
		Aggregate:   ItemCounts{Total: len(items)},
		StartTime:   now,
		CreateTime:  now,
		LastUpdated: now,
	}
}

// TotalItems returns the number of WorkItems in the job.
func (je *JobExecution) TotalItems() int {
	return len(je.Items)
}

// TerminalBatches returns the number of batches that reached a terminal state.
func (je *JobExecution) TerminalBatches() int {
	n := 0
	for _, b := range je.Batches {
		if b.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// ActiveBatches returns the number of batches currently in the SUBMITTED state.
func (je *JobExecution) ActiveBatches() int {
	n := 0
	for _, b := range je.Batches {
		if b.Status == BatchSubmitted {
			n++
		}
	}
	return n
}

// TransitionTo safely transitions the state of the JobExecution.
// Note: Fields other than Status and LastUpdated must be set separately by the caller.
func (je *JobExecution) TransitionTo(newStatus JobStatus) error {
	if !isValidJobTransition(je.Status, newStatus) {
		return fmt.Errorf("JobExecution (ID: %s): Invalid state transition: %s -> %s", je.ID, je.Status, newStatus)
	}
	je.Status = newStatus
	return nil
}

// MarkAsRunning updates the JobExecution status to RUNNING.
func (je *JobExecution) MarkAsRunning() {
	if err := je.TransitionTo(JobRunning); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to RUNNING: %v", je.ID, err)
		je.Status = JobRunning
	}
	je.StartTime = time.Now()
	je.LastUpdated = je.StartTime
}

// MarkAsCompleted updates the JobExecution status to COMPLETED.
func (je *JobExecution) MarkAsCompleted() {
	if err := je.TransitionTo(JobCompleted); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to COMPLETED: %v", je.ID, err)
		je.Status = JobCompleted
	}
	now := time.Now()
	je.EndTime = &now
	je.LastUpdated = now
}

// MarkAsFailed updates the JobExecution status to FAILED and adds error information.
func (je *JobExecution) MarkAsFailed(err error) {
	if terr := je.TransitionTo(JobFailed); terr != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to FAILED: %v", je.ID, terr)
		je.Status = JobFailed
	}
	now := time.Now()
	je.EndTime = &now
	je.LastUpdated = now
	if err != nil {
		je.AddFailureException(err)
	}
}

// MarkAsTimedOut updates the JobExecution status to TIMED_OUT.
// The partial aggregate accumulated so far is preserved.
func (je *JobExecution) MarkAsTimedOut(err error) {
	if terr := je.TransitionTo(JobTimedOut); terr != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to TIMED_OUT: %v", je.ID, terr)
		je.Status = JobTimedOut
	}
	now := time.Now()
	je.EndTime = &now
	je.LastUpdated = now
	if err != nil {
		je.AddFailureException(err)
	}
}

// AddFailureException adds error information to the JobExecution. It avoids adding duplicate errors.
func (je *JobExecution) AddFailureException(err error) {
	if err == nil {
		return
	}
	errMsg := exception.ExtractErrorMessage(err)

	for _, existingErr := range je.Failures {
		if existingErr == errMsg {
			logger.Debugf("Skipped adding duplicate error '%s' to JobExecution (ID: %s).", errMsg, je.ID)
			return
		}
	}

	je.Failures = append(je.Failures, errMsg)
	je.LastUpdated = time.Now()
}

// AddBatch adds a Batch to the JobExecution.
func (je *JobExecution) AddBatch(b *Batch) {
	je.Batches = append(je.Batches, b)
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}
