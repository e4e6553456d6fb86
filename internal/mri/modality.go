package mri

// Modality identifies one MRI acquisition sequence or a derived
// segmentation mask. Values are the lowercase keys used on the wire, in
// storage key construction and by the embedding service.
type Modality string

const (
	T1c Modality = "t1c" // T1-weighted, contrast enhanced
	T1n Modality = "t1n" // T1-weighted, native
	T2f Modality = "t2f" // T2-weighted FLAIR
	T2w Modality = "t2w" // T2-weighted
	Seg Modality = "seg" // segmentation mask
)

// Modalities returns the full, closed modality set in canonical order.
func Modalities() []Modality {
	return []Modality{T1c, T1n, T2f, T2w, Seg}
}

// EmbeddingModalities returns the modalities the embedding service expects.
// Every key in this set is sent on every request; absent modalities are
// sent as explicit nulls so the service can apply its deterministic
// fallback for missing sequences.
func EmbeddingModalities() []Modality {
	return []Modality{T1c, T1n, T2f, T2w, Seg}
}

// IsValid reports whether m is part of the closed modality set.
func (m Modality) IsValid() bool {
	switch m {
	case T1c, T1n, T2f, T2w, Seg:
		return true
	}
	return false
}

// ModalityRefs maps each modality to the opaque storage reference of its
// uploaded file. A missing or empty value means the modality is absent for
// this case.
type ModalityRefs map[Modality]string

// Missing returns the embedding-relevant modalities that have no stored
// reference, in canonical order.
func (r ModalityRefs) Missing() []Modality {
	var missing []Modality
	for _, m := range EmbeddingModalities() {
		if r[m] == "" {
			missing = append(missing, m)
		}
	}
	return missing
}

// Normalized returns a copy of r containing every modality of the closed
// set, with empty references for absent modalities. The copy makes the
// "representable but null" shape of the persisted record explicit.
func (r ModalityRefs) Normalized() ModalityRefs {
	out := make(ModalityRefs, len(Modalities()))
	for _, m := range Modalities() {
		out[m] = r[m]
	}
	return out
}

// SimilarPatient is one entry of the cached similarity list: a prior case
// and its similarity score. Scores are opaque ranking values; only their
// relative (descending) order is meaningful.
type SimilarPatient struct {
	PatientID string  `json:"patient_id"`
	Score     float32 `json:"score"`
}
