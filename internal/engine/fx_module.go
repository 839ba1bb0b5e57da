package engine

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hftcore/lobengine/internal/metrics"
)

// Module wires the engine into an fx.App: it provides a *Engine built from
// a caller-supplied Config, attaches the metrics.Module's collectors, and
// starts/stops its pipeline workers and flush task on the app lifecycle,
// grounded on the teacher's internal/architecture/fx/module.go
// fx.Options/fx.Invoke/fx.Lifecycle pattern.
var Module = fx.Options(
	fx.Provide(New),
	metrics.Module,
	fx.Invoke(attachMetrics),
	fx.Invoke(registerLifecycle),
)

func attachMetrics(e *Engine, m *metrics.EngineMetrics) {
	e.SetMetrics(m)
}

func registerLifecycle(lc fx.Lifecycle, e *Engine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("engine: starting event pipeline")
			e.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("engine: stopping event pipeline")
			e.Stop()
			return nil
		},
	})
}
