package scheduler

import (
	"go.uber.org/fx"

	"github.com/lumapix/darkroom/pkg/orchestrate/aggregate"
	repository "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
	metrics "github.com/lumapix/darkroom/pkg/orchestrate/core/metrics"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	"github.com/lumapix/darkroom/pkg/orchestrate/report"
)

// SchedulerParams defines the dependencies for NewScheduler.
type SchedulerParams struct {
	fx.In
	Client        port.WorkerClient
	Partitioner   port.Partitioner
	Aggregator    *aggregate.ProgressAggregator
	Reporter      *report.ResultReporter
	JobRepository repository.JobRepository
	Reconciler    port.Reconciler `optional:"true"`
	Recorder      metrics.Recorder
	Tracer        metrics.Tracer
}

// Module provides the Scheduler and its pure collaborators to Fx.
var Module = fx.Options(
	fx.Provide(aggregate.NewProgressAggregator),
	fx.Provide(report.NewResultReporter),
	fx.Provide(func(p SchedulerParams) *Scheduler {
		return NewScheduler(p.Client, p.Partitioner, p.Aggregator, p.Reporter,
			p.JobRepository, p.Reconciler, p.Recorder, p.Tracer)
	}),
)
