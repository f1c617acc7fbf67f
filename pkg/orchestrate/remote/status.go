package remote

import (
	"strings"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// statusPayload is the wire shape of a worker status response.
//
// Deployed workers are not consistent about field names: older ones report
// "completed_photos"/"failed_photos", newer ones "completed_count"/
// "failed_count", and some report only "processed_count". Pointer fields
// distinguish absent from zero so the aliases can be folded together.
type statusPayload struct {
	Status          string   `json:"status"`
	TaskID          string   `json:"task_id"`
	ProgressPercent *float64 `json:"progress"`
	ErrorMessage    string   `json:"error"`

	CompletedCount  *int `json:"completed_count"`
	CompletedPhotos *int `json:"completed_photos"`
	ProcessedCount  *int `json:"processed_count"`
	FailedCount     *int `json:"failed_count"`
	FailedPhotos    *int `json:"failed_photos"`
	SkippedCount    *int `json:"skipped_count"`
	TotalCount      *int `json:"total_count"`
	TotalPhotos     *int `json:"total_photos"`
}

// firstOf returns the first non-nil value, or 0 when none is set.
func firstOf(candidates ...*int) int {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

// normalizePhase maps the worker's free-form status string onto a TaskPhase.
// Unknown values are treated as still processing so a misbehaving worker
// cannot settle a batch early.
func normalizePhase(raw string) model.TaskPhase {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "complete", "done", "success", "succeeded":
		return model.TaskCompleted
	case "failed", "error", "errored":
		return model.TaskFailed
	case "not_found", "notfound", "unknown_task":
		return model.TaskNotFound
	default:
		return model.TaskProcessing
	}
}

// normalize converts a raw worker payload into the engine's TaskStatus.
func (p *statusPayload) normalize() model.TaskStatus {
	status := model.TaskStatus{
		Phase:        normalizePhase(p.Status),
		ErrorMessage: p.ErrorMessage,
		Counts: model.ItemCounts{
			Completed: firstOf(p.CompletedCount, p.CompletedPhotos, p.ProcessedCount),
			Failed:    firstOf(p.FailedCount, p.FailedPhotos),
			Skipped:   firstOf(p.SkippedCount),
			Total:     firstOf(p.TotalCount, p.TotalPhotos),
		},
	}
	if p.ProgressPercent != nil {
		status.ProgressPercent = *p.ProgressPercent
	}
	return status
}
