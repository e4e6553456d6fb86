package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simri/simri/internal/blobstore"
	"github.com/simri/simri/internal/events"
	"github.com/simri/simri/internal/mri"
	"github.com/simri/simri/internal/patientstore"
)

// Operation values reported on a successful run.
const (
	OperationCreated = "created"
	OperationUpdated = "updated"
)

// Upload is one modality file of a fresh upload.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Request describes one ingestion. Exactly one of the two shapes is
// used: a fresh upload carries Uploads, a sample carries StorageKeys of
// objects that already exist in the bucket.
type Request struct {
	PatientID string
	Clinical  mri.ClinicalData

	Uploads map[mri.Modality]Upload

	IsSample    bool
	StorageKeys mri.ModalityRefs
}

// Result reports the outcome of a successful run.
type Result struct {
	PatientID string `json:"patient_id"`
	Operation string `json:"operation"`
}

// ErrUnknownPatient reports a removal target that has no record.
var ErrUnknownPatient = errors.New("unknown patient")

// Service runs the ingestion pipeline. It is safe for concurrent use;
// parallel runs for the same patient id resolve by last write wins.
type Service struct {
	cfg       Config
	blobs     BlobGateway
	embedder  Embedder
	searcher  SimilaritySearcher
	index     VectorIndex
	records   RecordStore
	preview   PreviewDeriver
	publisher events.Publisher
	observer  Observer
	tracer    Tracer
	logger    Logger
}

func NewService(
	cfg Config,
	blobs BlobGateway,
	embedder Embedder,
	searcher SimilaritySearcher,
	index VectorIndex,
	records RecordStore,
	preview PreviewDeriver,
	publisher events.Publisher,
	observer Observer,
	tracer Tracer,
	logger Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		blobs:     blobs,
		embedder:  embedder,
		searcher:  searcher,
		index:     index,
		records:   records,
		preview:   preview,
		publisher: publisher,
		observer:  observer,
		tracer:    tracer,
		logger:    logger,
	}
}

// Ingest runs the full pipeline for one request.
//
// Aborts surface as one of the typed pipeline errors; none of the steps
// retries on its own. The caller's context only governs validation: once
// staging begins the run continues on a detached context, so a client
// disconnect cannot strand a half-ingested case.
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	if err := s.validate(req); err != nil {
		s.observer.ObserveIngestion("none", "validation_failed")
		return nil, err
	}

	// Detach from request cancellation for every side-effecting step.
	runCtx := context.WithoutCancel(ctx)

	runCtx, span := s.tracer.StartSpan(runCtx, "ingest.pipeline")
	defer span.End()
	s.tracer.SetAttributes(span, map[string]interface{}{
		"patient_id": req.PatientID,
		"sample":     req.IsSample,
	})

	var refs mri.ModalityRefs
	err := s.runStage(runCtx, "staging", func(ctx context.Context) error {
		var stageErr error
		refs, stageErr = s.stage(ctx, req)
		return stageErr
	})
	if err != nil {
		s.observer.ObserveIngestion("none", "staging_failed")
		return nil, err
	}

	var vector []float32
	err = s.runStage(runCtx, "embedding", func(ctx context.Context) error {
		embedded, embedErr := s.embedder.Embed(ctx, req.PatientID, s.blobs.Bucket(), refs)
		if embedErr != nil {
			return &EmbeddingServiceError{Err: embedErr}
		}
		vector = embedded
		return nil
	})
	if err != nil {
		s.observer.ObserveIngestion("none", "embedding_failed")
		return nil, err
	}

	var similar []mri.SimilarPatient
	_ = s.runStage(runCtx, "similarity_search", func(ctx context.Context) error {
		var degraded bool
		similar, degraded = s.searcher.FindSimilar(ctx, vector, req.PatientID, s.cfg.SimilarLimit)
		if degraded {
			s.observer.ObserveSearchDegraded()
		}
		return nil
	})

	var result *Result
	err = s.runStage(runCtx, "persistence", func(ctx context.Context) error {
		var stageErr error
		result, stageErr = s.persist(ctx, req, refs, vector, similar)
		return stageErr
	})
	if err != nil {
		s.observer.ObserveIngestion("none", "persistence_failed")
		return nil, err
	}

	s.observer.ObserveIngestion(result.Operation, "success")
	s.publisher.PublishIngestionCompleted(runCtx, events.IngestionCompleted{
		PatientID:  result.PatientID,
		Operation:  result.Operation,
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Info("ingestion completed", nil, map[string]interface{}{
		"patient_id": result.PatientID,
		"operation":  result.Operation,
	})

	return result, nil
}

// runStage wraps one pipeline stage in a span and records its duration.
func (s *Service) runStage(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "ingest."+stage)
	defer span.End()
	defer s.observer.ObserveStageDuration(start, stage)

	if err := fn(ctx); err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		return err
	}
	return nil
}

// Remove deletes one case end to end: the stored modality files, the
// preview slot, the index entry, and finally the record. Blob and index
// removal are best-effort; only the record delete is authoritative.
func (s *Service) Remove(ctx context.Context, patientID string) error {
	id := strings.TrimSpace(patientID)
	if id == "" {
		return &ValidationError{Reason: "patient id is required"}
	}

	runCtx := context.WithoutCancel(ctx)

	runCtx, span := s.tracer.StartSpan(runCtx, "ingest.remove")
	defer span.End()
	s.tracer.SetAttributes(span, map[string]interface{}{"patient_id": id})

	record, err := s.records.GetByPublicID(runCtx, id)
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		return &PersistenceError{Err: err}
	}
	if record == nil {
		return ErrUnknownPatient
	}

	keys := make([]string, 0, len(record.ModalityRefs)+1)
	for _, ref := range mri.ModalityRefs(record.ModalityRefs) {
		if ref != "" {
			keys = append(keys, ref)
		}
	}
	if record.ThumbnailRef != "" {
		keys = append(keys, record.ThumbnailRef)
	}

	for _, key := range keys {
		if err := s.blobs.Delete(runCtx, key); err != nil {
			s.logger.Warn("failed to delete stored object", err, map[string]interface{}{
				"patient_id": id,
				"key":        key,
			})
		}
	}

	if err := s.index.Delete(runCtx, []string{record.PatientID}); err != nil {
		s.logger.Warn("failed to delete index entry", err, map[string]interface{}{
			"patient_id": id,
		})
	}

	if _, err := s.records.Delete(runCtx, record.PatientID); err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		return &PersistenceError{Err: err}
	}

	s.logger.Info("patient removed", nil, map[string]interface{}{
		"patient_id":   id,
		"deleted_keys": len(keys),
	})

	return nil
}

func (s *Service) validate(req Request) error {
	if strings.TrimSpace(req.PatientID) == "" {
		return &ValidationError{Reason: "patient id is required"}
	}
	if req.Clinical.Age <= 0 {
		return &ValidationError{Reason: "age must be a positive number"}
	}
	if strings.TrimSpace(req.Clinical.Diagnosis) == "" {
		return &ValidationError{Reason: "diagnosis is required"}
	}
	if req.Clinical.Sex != "" && !req.Clinical.Sex.IsValid() {
		return &ValidationError{Reason: fmt.Sprintf("unknown sex %q", req.Clinical.Sex)}
	}

	if req.IsSample {
		return nil
	}

	if len(req.Uploads) == 0 {
		return &ValidationError{Reason: "at least one modality file is required"}
	}
	for modality := range req.Uploads {
		if !modality.IsValid() {
			return &ValidationError{Reason: fmt.Sprintf("unknown modality %q", modality)}
		}
	}

	if s.cfg.RequireAllModalities {
		var missing []string
		for _, modality := range mri.Modalities() {
			if _, ok := req.Uploads[modality]; !ok {
				missing = append(missing, string(modality))
			}
		}
		if len(missing) > 0 {
			return &ValidationError{Reason: fmt.Sprintf("missing modality files: %s", strings.Join(missing, ", "))}
		}
	}

	return nil
}

// stage writes every uploaded modality to its deterministic key,
// concurrently, all or nothing. The sample path reuses the declared
// references without touching the bucket.
func (s *Service) stage(ctx context.Context, req Request) (mri.ModalityRefs, error) {
	if req.IsSample {
		return req.StorageKeys.Normalized(), nil
	}

	for _, modality := range mri.Modalities() {
		if _, ok := req.Uploads[modality]; !ok {
			s.logger.Warn("modality file absent, storing null reference", nil, map[string]interface{}{
				"patient_id": req.PatientID,
				"modality":   string(modality),
			})
		}
	}

	var mu sync.Mutex
	staged := make(mri.ModalityRefs, len(req.Uploads))

	g, groupCtx := errgroup.WithContext(ctx)
	for modality, upload := range req.Uploads {
		g.Go(func() error {
			key := blobstore.ObjectKey(req.PatientID, string(modality), upload.FileName)
			ref, err := s.blobs.Put(groupCtx, key, upload.Reader, upload.Size, upload.ContentType)
			if err != nil {
				return fmt.Errorf("modality %s: %w", modality, err)
			}

			mu.Lock()
			staged[modality] = ref
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.abandonStaged(ctx, req.PatientID, staged, err)
		return nil, &StorageWriteError{Err: err}
	}

	return staged.Normalized(), nil
}

// abandonStaged reports the keys a failed join left behind. The objects
// are not deleted here; a retried run overwrites the same keys and an
// offline consumer of blob.orphaned can collect the rest.
func (s *Service) abandonStaged(ctx context.Context, patientID string, staged mri.ModalityRefs, cause error) {
	keys := make([]string, 0, len(staged))
	for _, ref := range staged {
		if ref != "" {
			keys = append(keys, ref)
		}
	}

	s.logger.Error("aborting ingestion after partial staging", cause, map[string]interface{}{
		"patient_id":   patientID,
		"orphaned":     keys,
		"orphan_count": len(keys),
	})

	if len(keys) == 0 {
		return
	}

	s.observer.ObserveOrphanedBlobs(len(keys))
	s.publisher.PublishBlobOrphaned(ctx, events.BlobOrphaned{
		PatientID:  patientID,
		ObjectKeys: keys,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	})
}

func (s *Service) persist(ctx context.Context, req Request, refs mri.ModalityRefs, vector []float32, similar []mri.SimilarPatient) (*Result, error) {
	thumbnailRef, err := s.preview.Derive(ctx, req.PatientID, refs)
	if err != nil {
		s.logger.Warn("failed to derive preview reference", err, map[string]interface{}{
			"patient_id": req.PatientID,
		})
		thumbnailRef = ""
	}

	if similar == nil {
		similar = []mri.SimilarPatient{}
	}

	record := &patientstore.PatientRecord{
		PatientID:        req.PatientID,
		PublicID:         req.PatientID,
		Clinical:         patientstore.ClinicalColumn(req.Clinical),
		ModalityRefs:     patientstore.RefsColumn(refs),
		ThumbnailRef:     thumbnailRef,
		Embedding:        patientstore.VectorColumn(vector),
		SimilarPatients:  patientstore.SimilarColumn(similar),
		UploadedAt:       time.Now().UTC(),
		IsExternalSample: req.IsSample,
	}

	created, err := s.records.Upsert(ctx, record)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	// The record is the source of truth; a failed index write only means
	// this case will not appear in similarity results until re-ingested.
	if err := s.index.Upsert(ctx, req.PatientID, vector); err != nil {
		s.logger.Warn("failed to upsert vector into similarity index", err, map[string]interface{}{
			"patient_id": req.PatientID,
		})
	}

	operation := OperationUpdated
	if created {
		operation = OperationCreated
	}

	return &Result{PatientID: req.PatientID, Operation: operation}, nil
}
