package embedding

import (
	"context"

	"github.com/simri/simri/internal/mri"
)

// Request identifies one case to embed: which patient, which bucket the
// modality files live in, and the storage key of each staged modality.
type Request struct {
	PatientID string
	Bucket    string
	Refs      mri.ModalityRefs
}

// Provider contract: turns one Request into an embedding vector.
type Provider interface {
	Embed(ctx context.Context, req Request) ([]float32, error)
}
