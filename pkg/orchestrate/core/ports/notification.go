package ports

import (
	"context"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// Notifier is an abstract interface for notifying external systems about job
// execution results.
type Notifier interface {
	// NotifyJobCompletion notifies about job completion (success/failure/timeout).
	NotifyJobCompletion(ctx context.Context, execution *model.JobExecution, report model.JobReport)
}
