package remote

import (
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	"go.uber.org/fx"
)

// Module provides the HTTP worker client as the [port.WorkerClient]
// implementation and the HTTP reconciler as the [port.Reconciler].
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewHTTPWorkerClient,
		fx.As(new(port.WorkerClient)),
	)),
	fx.Provide(fx.Annotate(
		NewHTTPReconciler,
		fx.As(new(port.Reconciler)),
	)),
)
