package patientstore

import (
	"context"

	"go.uber.org/fx"
)

var FXModule = fx.Module("patientstore",
	fx.Provide(
		NewConfig,
		NewStore,
	),
	fx.Invoke(RegisterStoreLifecycle),
)

func RegisterStoreLifecycle(lifecycle fx.Lifecycle, store *Store) {
	lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return store.Migrate()
		},
		OnStop: func(ctx context.Context) error {
			return store.GracefulShutdown()
		},
	})
}
