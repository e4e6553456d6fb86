package ingest

import (
	"context"

	"github.com/simri/simri/internal/blobstore"
	"github.com/simri/simri/internal/mri"
)

// PreviewDeriver resolves the reference of a pre-rendered preview image
// for a case. An empty reference means no preview exists; deriver
// failures never abort an ingestion.
type PreviewDeriver interface {
	Derive(ctx context.Context, patientID string, refs mri.ModalityRefs) (string, error)
}

// SlotPreviewDeriver points every case at the conventional preview slot
// under its storage prefix. Rendering the actual image is an offline
// concern, and presigning does not check that the object exists: the
// signed thumbnail URL of a slot that has not been rendered yet serves
// a 404 until the renderer catches up.
type SlotPreviewDeriver struct{}

func (SlotPreviewDeriver) Derive(_ context.Context, patientID string, _ mri.ModalityRefs) (string, error) {
	return blobstore.ThumbnailKey(patientID), nil
}
