package notification

import (
	"go.uber.org/fx"

	"github.com/lumapix/darkroom/pkg/orchestrate/core/ports"
	"github.com/lumapix/darkroom/pkg/orchestrate/scheduler"
)

// Module provides notification-related components.
var Module = fx.Options(
	// Provides a concrete implementation of Notifier.
	fx.Provide(fx.Annotate(
		NewLogNotifier,
		fx.As(new(ports.Notifier)),
	)),

	// Attaches the notification listener to the scheduler.
	fx.Invoke(func(sched *scheduler.Scheduler, notifier ports.Notifier) {
		sched.RegisterCompletionListener(NewNotificationListener(notifier))
	}),
)
