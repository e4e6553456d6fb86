package ingest

import (
	"go.uber.org/fx"

	"github.com/simri/simri/internal/blobstore"
	"github.com/simri/simri/internal/embedding"
	"github.com/simri/simri/internal/metrics"
	"github.com/simri/simri/internal/patientstore"
	"github.com/simri/simri/internal/tracer"
	"github.com/simri/simri/internal/vectorindex"
)

var FXModule = fx.Module("ingest",
	fx.Provide(
		NewConfig,
		NewService,

		// Bind the process-wide clients to the narrow pipeline interfaces.
		func(gw *blobstore.Gateway) BlobGateway { return gw },
		func(c *embedding.Client) Embedder { return c },
		func(s *vectorindex.Searcher) SimilaritySearcher { return s },
		func(idx vectorindex.Index) VectorIndex { return idx },
		func(s *patientstore.Store) RecordStore { return s },
		func(m *metrics.Metrics) Observer { return m },
		func(t *tracer.Tracer) Tracer { return t },
		func() PreviewDeriver { return SlotPreviewDeriver{} },
	),
)
