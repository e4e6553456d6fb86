package blobstore

import (
	"context"

	"go.uber.org/fx"
)

// FXModule wires the blob store gateway into Fx.
//
// Dependencies required by this module:
//   - a blobstore.Config instance
//   - a blobstore.Logger implementation
var FXModule = fx.Module("blobstore",
	fx.Provide(
		NewConfig,
		NewGateway,
	),
	fx.Invoke(RegisterLifecycle),
)

// RegisterLifecycle logs gateway shutdown. The MinIO client keeps no
// persistent connections, so there is nothing to close.
func RegisterLifecycle(lc fx.Lifecycle, gw *Gateway, logger Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing blob store gateway", nil, nil)
			return nil
		},
	})
}
