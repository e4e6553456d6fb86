package vectorindex

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
)

// pointNamespace is the UUIDv5 namespace under which patient ids are mapped
// to Qdrant point ids. Patient ids are arbitrary strings while Qdrant point
// ids must be numeric or UUID, so each case gets a deterministic UUID and
// carries its real id in the payload.
var pointNamespace = uuid.MustParse("8a3e1c6e-4b5f-4c70-9f26-5a1d3cf34eaf")

const payloadPatientID = "patient_id"

func pointID(patientID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(patientID)).String()
}

// EnsureReady verifies that the embeddings collection exists, and creates
// it if missing.
//
// It is safe to call multiple times: if the collection already exists the
// function exits early. This simplifies startup for deployments that
// bootstrap their own collection.
func (q *QdrantIndex) EnsureReady(ctx context.Context) error {
	name := q.cfg.Collection
	if name == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	collections, err := q.api.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("[Qdrant] failed to list collections: %w", err)
	}

	if slices.Contains(collections, name) {
		log.Printf("[Qdrant] Collection '%s' already exists", name)
		return nil
	}

	log.Printf("[Qdrant] Collection '%s' not found, creating it...", name)

	req := &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.cfg.Dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	}

	if err := q.api.CreateCollection(ctx, req); err != nil {
		return fmt.Errorf("[Qdrant] failed to create collection '%s': %w", name, err)
	}

	log.Printf("[Qdrant] Created collection '%s' successfully", name)
	return nil
}

// Upsert stores or replaces the embedding of one case. The insert is
// blocking (Wait=true) so the point is searchable once Upsert returns.
func (q *QdrantIndex) Upsert(ctx context.Context, patientID string, vector []float32) error {
	if patientID == "" {
		return fmt.Errorf("patient id cannot be empty")
	}
	if len(vector) == 0 {
		return fmt.Errorf("vector cannot be empty")
	}

	wait := true
	req := &qdrant.UpsertPoints{
		CollectionName: q.cfg.Collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(pointID(patientID)),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{payloadPatientID: patientID}),
			},
		},
		Wait: &wait,
	}

	if _, err := q.api.Upsert(ctx, req); err != nil {
		return fmt.Errorf("[Qdrant] upsert failed: %w", err)
	}

	log.Printf("[Qdrant] Upserted embedding (patient=%s, collection=%s)", patientID, q.cfg.Collection)
	return nil
}

// Query returns up to limit stored cases ranked by descending similarity.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if err := validateQueryInput(q.cfg.Collection, vector, limit); err != nil {
		return nil, err
	}

	qLimit := uint64(limit)
	req := &qdrant.QueryPoints{
		CollectionName: q.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &qLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	}

	resp, err := q.api.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] search failed: %w", err)
	}

	results, err := parseMatches(resp)
	if err != nil {
		return nil, err
	}

	log.Printf("[Qdrant] Search returned %d results", len(results))
	return results, nil
}

// parseMatches converts the Qdrant response into Match values, resolving
// each point back to its patient id via the payload.
func parseMatches(resp []*qdrant.ScoredPoint) ([]Match, error) {
	results := make([]Match, 0, len(resp))
	for _, r := range resp {
		payload := r.Payload[payloadPatientID]
		if payload == nil {
			return nil, fmt.Errorf("[Qdrant] point %v carries no %s payload", r.Id, payloadPatientID)
		}

		results = append(results, Match{
			ID:    payload.GetStringValue(),
			Score: r.Score,
		})
	}
	return results, nil
}

// Delete removes the embeddings of the given cases from the collection.
func (q *QdrantIndex) Delete(ctx context.Context, patientIDs []string) error {
	if len(patientIDs) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, 0, len(patientIDs))
	for _, id := range patientIDs {
		ids = append(ids, qdrant.NewID(pointID(id)))
	}

	wait := true
	req := &qdrant.DeletePoints{
		CollectionName: q.cfg.Collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: ids},
			},
		},
		Wait: &wait,
	}

	resp, err := q.api.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("[Qdrant] delete failed: %w", err)
	}

	log.Printf("[Qdrant] Delete completed (status=%s, collection=%s)",
		resp.Status.String(), q.cfg.Collection)
	return nil
}

// validateQueryInput validates common search parameters
func validateQueryInput(collectionName string, vector []float32, limit int) error {
	if collectionName == "" {
		return fmt.Errorf("collection name cannot be empty")
	}
	if len(vector) == 0 {
		return fmt.Errorf("vector cannot be empty")
	}
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	return nil
}
