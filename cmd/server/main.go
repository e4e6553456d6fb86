package main

import (
	"go.uber.org/fx"

	"github.com/simri/simri/internal/blobstore"
	"github.com/simri/simri/internal/embedding"
	"github.com/simri/simri/internal/events"
	"github.com/simri/simri/internal/httpapi"
	"github.com/simri/simri/internal/ingest"
	"github.com/simri/simri/internal/logger"
	"github.com/simri/simri/internal/metrics"
	"github.com/simri/simri/internal/patientstore"
	"github.com/simri/simri/internal/tracer"
	"github.com/simri/simri/internal/vectorindex"
)

func main() {
	app := fx.New(
		logger.FXModule,
		tracer.FXModule,
		metrics.FXModule,
		blobstore.FXModule,
		embedding.FXModule,
		vectorindex.FXModule,
		patientstore.FXModule,
		events.FXModule,
		ingest.FXModule,
		httpapi.FXModule,

		// Every package declares its own narrow logging interface; bind
		// them all to the shared zap client.
		fx.Provide(
			func(l *logger.Logger) tracer.Logger { return l },
			func(l *logger.Logger) blobstore.Logger { return l },
			func(l *logger.Logger) events.Logger { return l },
			func(l *logger.Logger) ingest.Logger { return l },
			func(l *logger.Logger) httpapi.Logger { return l },
		),
	)

	app.Run()
}
