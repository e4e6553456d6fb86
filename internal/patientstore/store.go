package patientstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// upsertStmt replaces the full document for a patient id in a single
// round-trip. xmax = 0 only holds for freshly inserted rows, which is how
// the statement reports created vs. updated.
const upsertStmt = `
INSERT INTO patient_records
	(patient_id, public_id, clinical, modality_refs, thumbnail_ref, embedding, similar_patients, uploaded_at, is_external_sample)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (patient_id) DO UPDATE SET
	public_id          = EXCLUDED.public_id,
	clinical           = EXCLUDED.clinical,
	modality_refs      = EXCLUDED.modality_refs,
	thumbnail_ref      = EXCLUDED.thumbnail_ref,
	embedding          = EXCLUDED.embedding,
	similar_patients   = EXCLUDED.similar_patients,
	uploaded_at        = EXCLUDED.uploaded_at,
	is_external_sample = EXCLUDED.is_external_sample
RETURNING (xmax = 0) AS created`

// Upsert inserts the record or atomically replaces the prior document for
// the same patient id. Callers must supply the complete, final document;
// there are no partial-field update semantics.
//
// Returns created=true when no prior document existed.
func (s *Store) Upsert(ctx context.Context, record *PatientRecord) (bool, error) {
	if record.PatientID == "" {
		return false, fmt.Errorf("patient id cannot be empty")
	}

	var result struct {
		Created bool
	}

	err := s.db.WithContext(ctx).Raw(upsertStmt,
		record.PatientID,
		record.PublicID,
		record.Clinical,
		record.ModalityRefs,
		record.ThumbnailRef,
		record.Embedding,
		record.SimilarPatients,
		record.UploadedAt,
		record.IsExternalSample,
	).Scan(&result).Error
	if err != nil {
		return false, fmt.Errorf("failed to upsert patient record %q: %w", record.PatientID, err)
	}

	return result.Created, nil
}

// GetByID fetches one record by its patient id. A missing record yields
// (nil, nil).
func (s *Store) GetByID(ctx context.Context, patientID string) (*PatientRecord, error) {
	var record PatientRecord
	err := s.db.WithContext(ctx).Where("patient_id = ?", patientID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient record %q: %w", patientID, err)
	}
	return &record, nil
}

// GetByPublicID fetches one record by its public identifier. A missing
// record yields (nil, nil).
func (s *Store) GetByPublicID(ctx context.Context, publicID string) (*PatientRecord, error) {
	var record PatientRecord
	err := s.db.WithContext(ctx).Where("public_id = ?", publicID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient record by public id %q: %w", publicID, err)
	}
	return &record, nil
}

// Delete removes one record. It reports whether a record existed.
func (s *Store) Delete(ctx context.Context, patientID string) (bool, error) {
	if patientID == "" {
		return false, fmt.Errorf("patient id cannot be empty")
	}

	result := s.db.WithContext(ctx).Where("patient_id = ?", patientID).Delete(&PatientRecord{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete patient record %q: %w", patientID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListQuery narrows and pages the dashboard listing.
type ListQuery struct {
	// Search matches case-insensitively against public id OR diagnosis.
	Search string

	// Diagnosis matches case-insensitively against the diagnosis only.
	Diagnosis string

	// AgeMin / AgeMax bound the clinical age; zero values apply no bound
	// (AgeMax of 0 means unbounded above).
	AgeMin int
	AgeMax int

	// ExcludeIDs drops records the client already fetched, so "load more"
	// tolerates result sets shifting between page fetches.
	ExcludeIDs []string

	// IncludeSamples lifts the default exclusion of external sample cases.
	IncludeSamples bool

	Skip  int
	Limit int
}

// ListResult is one page of the listing plus the paging metadata the
// dashboard needs.
type ListResult struct {
	Items      []PatientRecord
	TotalCount int64
	HasMore    bool
}

const defaultListLimit = 12

// escapeLike escapes the LIKE wildcards in user-supplied search terms.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// List returns one page of patient summaries, newest first.
func (s *Store) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	// Fresh chains per statement; gorm builders are not reusable across
	// finishers.
	filtered := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Model(&PatientRecord{})

		if !q.IncludeSamples {
			tx = tx.Where("is_external_sample = ?", false)
		}

		if q.Search != "" {
			pattern := "%" + escapeLike(q.Search) + "%"
			tx = tx.Where("(public_id ILIKE ? OR clinical->>'diagnosis' ILIKE ?)", pattern, pattern)
		}

		if q.Diagnosis != "" {
			tx = tx.Where("clinical->>'diagnosis' ILIKE ?", "%"+escapeLike(q.Diagnosis)+"%")
		}

		if q.AgeMin > 0 {
			tx = tx.Where("(clinical->>'age')::int >= ?", q.AgeMin)
		}
		if q.AgeMax > 0 {
			tx = tx.Where("(clinical->>'age')::int <= ?", q.AgeMax)
		}

		if len(q.ExcludeIDs) > 0 {
			tx = tx.Where("public_id NOT IN ?", q.ExcludeIDs)
		}

		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count patient records: %w", err)
	}

	var items []PatientRecord
	err := filtered().Order("uploaded_at DESC").
		Offset(q.Skip).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list patient records: %w", err)
	}

	return &ListResult{
		Items:      items,
		TotalCount: total,
		HasMore:    int64(q.Skip+len(items)) < total,
	}, nil
}
