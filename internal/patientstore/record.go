package patientstore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/simri/simri/internal/mri"
)

// PatientRecord is the persisted document for one case. It is created on
// first successful ingestion and only ever mutated by a subsequent
// ingestion for the same patient id (full replace).
type PatientRecord struct {
	// PatientID is the externally supplied unique key all upserts run on.
	PatientID string `gorm:"primaryKey;column:patient_id"`

	// PublicID is the display and query identifier; it may equal PatientID.
	PublicID string `gorm:"column:public_id;index"`

	Clinical ClinicalColumn `gorm:"column:clinical;type:jsonb"`

	// ModalityRefs maps every modality of the closed set to its storage
	// reference; absent modalities carry an empty reference.
	ModalityRefs RefsColumn `gorm:"column:modality_refs;type:jsonb"`

	// ThumbnailRef is the storage slot of the pre-rendered preview image,
	// empty when no preview exists.
	ThumbnailRef string `gorm:"column:thumbnail_ref"`

	// Embedding is the fixed-length vector computed at ingestion time.
	Embedding VectorColumn `gorm:"column:embedding;type:jsonb"`

	// SimilarPatients is the similarity list cached at ingestion time; it
	// never contains PatientID itself.
	SimilarPatients SimilarColumn `gorm:"column:similar_patients;type:jsonb"`

	UploadedAt time.Time `gorm:"column:uploaded_at;index"`

	// IsExternalSample marks pre-staged demo cases, which stay out of
	// default listings.
	IsExternalSample bool `gorm:"column:is_external_sample"`
}

func (PatientRecord) TableName() string {
	return "patient_records"
}

// jsonb column wrappers. gorm serializes these through the
// driver.Valuer / sql.Scanner pair.

type ClinicalColumn mri.ClinicalData

func (c ClinicalColumn) Value() (driver.Value, error) {
	return json.Marshal(mri.ClinicalData(c))
}

func (c *ClinicalColumn) Scan(src any) error {
	return scanJSON(c, src)
}

type RefsColumn mri.ModalityRefs

func (r RefsColumn) Value() (driver.Value, error) {
	return json.Marshal(mri.ModalityRefs(r))
}

func (r *RefsColumn) Scan(src any) error {
	return scanJSON(r, src)
}

type VectorColumn []float32

func (v VectorColumn) Value() (driver.Value, error) {
	if v == nil {
		v = VectorColumn{}
	}
	return json.Marshal([]float32(v))
}

func (v *VectorColumn) Scan(src any) error {
	return scanJSON(v, src)
}

type SimilarColumn []mri.SimilarPatient

func (s SimilarColumn) Value() (driver.Value, error) {
	if s == nil {
		s = SimilarColumn{}
	}
	return json.Marshal([]mri.SimilarPatient(s))
}

func (s *SimilarColumn) Scan(src any) error {
	return scanJSON(s, src)
}

func scanJSON(dest any, src any) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(data, dest)
	case string:
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
