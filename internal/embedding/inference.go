package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/simri/simri/internal/mri"
)

type inferenceProvider struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

func newInferenceProvider(cfg *Config) (*inferenceProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("inference: missing EMBEDDING_ENDPOINT")
	}

	// Remove trailing slash if user added it.
	base := strings.TrimRight(cfg.Endpoint, "/")

	return &inferenceProvider{
		baseURL:      base,
		serviceToken: cfg.ServiceToken,
		httpClient:   &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutS) * time.Second},
	}, nil
}

// embedRequest is the wire payload of the model service's /embed endpoint.
// Keys holds every embedding-relevant modality; nil values serialize as
// JSON null, which the service interprets as "sequence absent, use the
// fallback tensor".
type embedRequest struct {
	PatientID string             `json:"patient_id"`
	Bucket    string             `json:"s3_bucket"`
	Keys      map[string]*string `json:"s3_keys"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests an embedding vector for one staged case.
// The key set sent upstream is always the full closed modality set, with
// explicit nulls for modalities that were not staged.
func (p *inferenceProvider) Embed(ctx context.Context, req Request) ([]float32, error) {
	keys := make(map[string]*string, len(mri.EmbeddingModalities()))
	for _, m := range mri.EmbeddingModalities() {
		if ref := req.Refs[m]; ref != "" {
			r := ref
			keys[string(m)] = &r
		} else {
			keys[string(m)] = nil
		}
	}

	payload := embedRequest{
		PatientID: req.PatientID,
		Bucket:    req.Bucket,
		Keys:      keys,
	}

	url := fmt.Sprintf("%s/embed", p.baseURL)

	var parsed embedResponse
	if err := p.postJSON(ctx, url, payload, &parsed); err != nil {
		return nil, err
	}

	if parsed.Embedding == nil {
		return nil, &ServiceError{Err: fmt.Errorf("response carries no embedding field")}
	}

	return parsed.Embedding, nil
}
