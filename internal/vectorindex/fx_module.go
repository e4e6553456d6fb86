package vectorindex

import (
	"context"

	"go.uber.org/fx"
)

// FXModule wires the vector index into Fx.
//
// It provides:
//   - *Config      (NewConfig)
//   - Index        (NewQdrantIndex, bound to the capability interface)
//   - *Searcher    (NewSearcherFromConfig)
//
// The collection is bootstrapped on startup so the first ingestion does
// not race collection creation.
var FXModule = fx.Module("vectorindex",
	fx.Provide(
		NewConfig,
		fx.Annotate(NewQdrantIndex, fx.As(new(Index))),
		NewSearcherFromConfig,
	),
	fx.Invoke(RegisterIndexLifecycle),
)

// RegisterIndexLifecycle ensures the collection exists on startup and
// closes the client on shutdown.
func RegisterIndexLifecycle(lc fx.Lifecycle, index Index) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return index.EnsureReady(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if closer, ok := index.(interface{ Close() error }); ok {
				return closer.Close()
			}
			return nil
		},
	})
}
