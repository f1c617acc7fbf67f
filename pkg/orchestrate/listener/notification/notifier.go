package notification

import (
	"context"
	"fmt"
	"time"

	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	"github.com/lumapix/darkroom/pkg/orchestrate/core/ports"
	"github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// LogNotifier is a Notifier implementation that only logs notifications.
// Real deployments replace it with a mailer or chat webhook implementation.
type LogNotifier struct{}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier() ports.Notifier {
	logger.Infof("Notification: Initializing Log Notifier.")
	return &LogNotifier{}
}

// NotifyJobCompletion notifies of job completion.
func (n *LogNotifier) NotifyJobCompletion(ctx context.Context, execution *model.JobExecution, report model.JobReport) {
	duration := time.Duration(0)
	if execution.EndTime != nil {
		duration = execution.EndTime.Sub(execution.StartTime)
	}

	message := fmt.Sprintf(
		"Job Notification: Job '%s' (ID: %s) finished with Status: %s, Severity: %s. Duration: %s. %s",
		execution.JobName,
		execution.ID,
		execution.Status,
		report.Severity,
		duration,
		report.Message,
	)

	if report.Severity == model.SeverityWarning {
		logger.Warnf(message)
	} else {
		logger.Infof(message)
	}
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NotificationListener adapts a ports.Notifier to port.CompletionListener.
type NotificationListener struct {
	notifier ports.Notifier
}

// NewNotificationListener creates a new instance of NotificationListener.
func NewNotificationListener(notifier ports.Notifier) port.CompletionListener {
	return &NotificationListener{notifier: notifier}
}

// OnJobReport sends a notification when a job terminates.
func (l *NotificationListener) OnJobReport(ctx context.Context, jobExecution *model.JobExecution, report model.JobReport) {
	l.notifier.NotifyJobCompletion(ctx, jobExecution, report)
}

var _ port.CompletionListener = (*NotificationListener)(nil)
