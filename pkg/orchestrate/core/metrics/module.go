package metrics

import (
	"go.uber.org/fx"
)

// Module is an Fx module that provides metrics-related components.
var Module = fx.Options(
	// By default, it provides NoOpRecorder and NoOpTracer as fallbacks.
	// Actual implementations (e.g., PrometheusRecorder, OtelTracer) are
	// prioritized if provided by the infrastructure layer.
	fx.Provide(fx.Annotate(
		NewNoOpRecorder,
		fx.As(new(Recorder)),
		fx.ResultTags(`optional:"true"`),
	)),
	fx.Provide(fx.Annotate(
		NewNoOpTracer,
		fx.As(new(Tracer)),
		fx.ResultTags(`optional:"true"`),
	)),
)
