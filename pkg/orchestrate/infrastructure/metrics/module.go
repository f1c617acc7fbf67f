package metrics

import (
	"context"

	"go.uber.org/fx"

	config "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	metrics "github.com/lumapix/darkroom/pkg/orchestrate/core/metrics"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// Module is an Fx module that provides PrometheusRecorder and OpenTelemetryTracer.
// Applications include either this module or core metrics.Module (no-ops), not both.
var Module = fx.Options(
	// Provide PrometheusRecorder as a metrics.Recorder interface.
	fx.Provide(fx.Annotate(
		NewPrometheusRecorder,
		fx.As(new(metrics.Recorder)),
	)),
	// Provide OpenTelemetryTracer as a metrics.Tracer interface.
	fx.Provide(fx.Annotate(
		NewOpenTelemetryTracer,
		fx.As(new(metrics.Tracer)),
	)),
	// Install the OTLP trace exporter when tracing is enabled.
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
		tracing := cfg.Darkroom.System.Tracing
		if !tracing.Enabled {
			return
		}
		var shutdown func(context.Context) error
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				var err error
				shutdown, err = InitTracerProvider(ctx, tracing.ServiceName, tracing.Endpoint, tracing.Protocol)
				if err != nil {
					// Tracing is best-effort; the job engine runs without it.
					logger.Warnf("Failed to initialize trace exporter: %v", err)
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				if shutdown == nil {
					return nil
				}
				return shutdown(ctx)
			},
		})
	}),
)
