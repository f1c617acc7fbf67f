package push

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"

	config "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	"github.com/lumapix/darkroom/pkg/orchestrate/scheduler"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// Module is an Fx module that provides the websocket push hub.
// When push.enabled is set, an HTTP endpoint is served at /ws on the
// configured address and the hub is attached to the scheduler's listeners.
var Module = fx.Options(
	fx.Provide(NewHub),
	fx.Invoke(func(lc fx.Lifecycle, hub *Hub, sched *scheduler.Scheduler, cfg *config.Config) {
		if !cfg.Darkroom.Push.Enabled {
			return
		}

		sched.RegisterProgressListener(hub)
		sched.RegisterCompletionListener(hub)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		server := &http.Server{Addr: cfg.Darkroom.Push.ListenAddr, Handler: mux}

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					logger.Infof("Push hub listening on %s", cfg.Darkroom.Push.ListenAddr)
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Errorf("Push hub server stopped: %v", err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				hub.CloseAll()
				return server.Shutdown(ctx)
			},
		})
	}),
)
