package logging

import (
	"go.uber.org/fx"

	"github.com/lumapix/darkroom/pkg/orchestrate/scheduler"
)

// Module attaches the logging listeners to the scheduler.
var Module = fx.Options(
	fx.Invoke(func(sched *scheduler.Scheduler) {
		sched.RegisterJobListener(NewLoggingJobListener())
		sched.RegisterBatchListener(NewLoggingBatchListener())
	}),
)
