package model

// TaskPhase is the normalized remote task status. Raw worker responses use
// inconsistent field names across endpoints; they are converted into this
// tagged form at the wire boundary and nothing downstream branches on raw
// field presence.
type TaskPhase string

const (
	// TaskProcessing means the task is still running; polling continues.
	TaskProcessing TaskPhase = "processing"
	// TaskCompleted is terminal success and carries item counts.
	TaskCompleted TaskPhase = "completed"
	// TaskFailed is terminal failure and carries an error message.
	TaskFailed TaskPhase = "failed"
	// TaskNotFound means the worker no longer knows the task. The task may
	// have been cleaned up after success; this is ambiguous, not a failure.
	TaskNotFound TaskPhase = "not_found"
)

// String returns the string representation of the TaskPhase.
func (p TaskPhase) String() string {
	return string(p)
}

// IsTerminal checks if the phase ends polling for the task.
func (p TaskPhase) IsTerminal() bool {
	switch p {
	case TaskCompleted, TaskFailed, TaskNotFound:
		return true
	default:
		return false
	}
}

// TaskStatus is one normalized status observation for a remote task.
type TaskStatus struct {
	Phase TaskPhase
	// Counts carries the worker-reported item outcomes. Only meaningful for
	// TaskCompleted and TaskFailed.
	Counts ItemCounts
	// ProgressPercent is the worker's own progress estimate, when provided.
	ProgressPercent float64
	// ErrorMessage carries the server error text for TaskFailed.
	ErrorMessage string
}

// SubmitReceipt is the worker's acknowledgement of a batch submission.
type SubmitReceipt struct {
	// TaskID is the opaque handle correlating later polls to the batch.
	TaskID string
	// TotalItems echoes the number of items the worker accepted.
	TotalItems int
}
