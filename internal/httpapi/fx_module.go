package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/simri/simri/internal/blobstore"
	"github.com/simri/simri/internal/ingest"
	"github.com/simri/simri/internal/metrics"
	"github.com/simri/simri/internal/patientstore"
	"github.com/simri/simri/internal/tracer"
)

var FXModule = fx.Module("httpapi",
	fx.Provide(
		NewConfig,
		NewHandler,
		NewServer,

		func(s *ingest.Service) Ingestor { return s },
		func(s *patientstore.Store) RecordReader { return s },
		func(gw *blobstore.Gateway) URLSigner { return gw },
		func(m *metrics.Metrics) Observer { return m },
		func(t *tracer.Tracer) Tracer { return t },
	),
	fx.Invoke(RegisterServerLifecycle),
)

// RegisterServerLifecycle starts the API server in the background on
// application start and drains it on stop.
func RegisterServerLifecycle(lc fx.Lifecycle, e *echo.Echo, cfg Config, logger Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				logger.Info("starting API server", nil, map[string]interface{}{
					"address": cfg.Address,
				})

				if err := e.Start(cfg.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("API server stopped unexpectedly", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down API server", nil)
			return e.Shutdown(ctx)
		},
	})
}
