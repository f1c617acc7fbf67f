package usecase

import (
	"go.uber.org/fx"

	cfg "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	repository "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
	"github.com/lumapix/darkroom/pkg/orchestrate/scheduler"
)

// Module is the Fx module for JobLauncher, JobExplorer and the callback registry.
var Module = fx.Options(
	// Provide JobExplorer
	fx.Provide(fx.Annotate(
		NewSimpleJobExplorer,
		fx.As(new(JobExplorer)),
	)),

	// Provide the callback registry and wire it onto the scheduler.
	fx.Provide(NewCallbackRegistry),

	// Provide JobLauncher
	fx.Provide(func(repo repository.JobRepository, sched *scheduler.Scheduler, config *cfg.Config) *SimpleJobLauncher {
		return NewSimpleJobLauncher(repo, sched, config.Darkroom.Batch)
	}),
	fx.Provide(fx.Annotate(
		func(launcher *SimpleJobLauncher) JobLauncher { return launcher },
		fx.As(new(JobLauncher)),
	)),

	// Invoke hook to attach the callback registry to the scheduler.
	fx.Invoke(func(sched *scheduler.Scheduler, registry *CallbackRegistry) {
		sched.RegisterProgressListener(registry.AsProgressListener())
		sched.RegisterCompletionListener(registry.AsCompletionListener())
	}),
)
