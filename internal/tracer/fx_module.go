package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule wires the tracer into Fx.
//
// Dependencies required by this module:
//   - a tracer.Logger implementation
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewConfig,
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle flushes pending spans on shutdown.
func RegisterTracerLifecycle(lc fx.Lifecycle, t *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			t.logger.Info("shutting down tracer", nil, nil)
			if t.provider == nil {
				return nil
			}
			return t.provider.Shutdown(ctx)
		},
	})
}
