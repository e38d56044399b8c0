// Package vectormemory implements the judge pipeline's long-term memory of
// past mistakes (spec §4.6): a formatted ~500-byte summary document per
// learner evaluation, inserted after judging and queried by the next
// stage-2 call for similar (primary metric, category) pairs.
package vectormemory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/mentormind/mentormind/pkg/metrics"
)

// Document is one vector-memory entry, built from a judged learner
// evaluation (spec §3 "Vector-memory document").
type Document struct {
	EvaluationID   string
	Text           string
	PrimaryMetric  metrics.Slug
	Category       string
	MetaScore      int
	PrimaryGap     float64
	WeightedGap    float64
	ModelName      string
	Timestamp      int64
	MistakePattern string
}

// QueryResult is one hit surfaced to judge stage-2's past-mistake context.
type QueryResult struct {
	EvaluationID   string
	Category       string
	JudgeMetaScore int
	PrimaryGap     float64
	Feedback       string
	MistakePattern string
	Timestamp      int64
}

// Store wraps a Qdrant collection. Construction ensures the collection
// exists with a cosine-distance vector config, following the same
// ensure-then-use pattern used for any Qdrant-backed store in the example
// pack.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// New connects to Qdrant at address (host:port, gRPC) and ensures
// collectionName exists at the given embedding dimension with cosine
// distance, per spec §3 ("Cosine similarity against a text embedding").
func New(ctx context.Context, address, collectionName string, dimension int) (*Store, error) {
	host, port, err := splitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("vectormemory: parse address: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("vectormemory: create qdrant client: %w", err)
	}

	s := &Store{client: client, collection: collectionName, dimension: dimension}
	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func splitHostPort(address string) (string, int, error) {
	host, portStr, found := strings.Cut(address, ":")
	if !found {
		return address, 6334, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("vectormemory: check collection: %w", err)
	}
	if exists {
		return nil
	}
	if s.dimension <= 0 {
		return fmt.Errorf("vectormemory: embedding dimension must be positive")
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectormemory: create collection: %w", err)
	}
	return nil
}

// Insert upserts doc's text embedding with its filter metadata. Insertion
// failures are the caller's to log at WARNING and swallow — they never
// block the orchestrator (spec §4.6).
func (s *Store) Insert(ctx context.Context, doc Document, embedding []float32) error {
	pointID := qdrant.NewIDUUID(evaluationUUID(doc.EvaluationID))

	payload := qdrant.NewValueMap(map[string]any{
		"evaluation_id":   doc.EvaluationID,
		"primary_metric":  string(doc.PrimaryMetric),
		"category":        doc.Category,
		"meta_score":      doc.MetaScore,
		"primary_gap":     doc.PrimaryGap,
		"weighted_gap":    doc.WeightedGap,
		"model_name":      doc.ModelName,
		"timestamp":       doc.Timestamp,
		"mistake_pattern": doc.MistakePattern,
		"feedback":        doc.Text,
	})

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      pointID,
			Vectors: qdrant.NewVectorsDense(embedding),
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("vectormemory: insert: %w", err)
	}
	return nil
}

// Query runs a similarity search against embedding, filtered by
// AND(primary_metric, category), returning up to n entries (spec §4.6).
// An empty result is expected and not an error.
func (s *Store) Query(ctx context.Context, embedding []float32, primaryMetric metrics.Slug, category string, n int) ([]QueryResult, error) {
	if n <= 0 {
		n = 5
	}
	limit := uint64(n)

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("primary_metric", string(primaryMetric)),
			qdrant.NewMatch("category", category),
		},
	}

	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(embedding),
		Limit:          &limit,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectormemory: query: %w", err)
	}

	results := make([]QueryResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Payload == nil {
			continue
		}
		results = append(results, QueryResult{
			EvaluationID:   stringField(hit.Payload, "evaluation_id"),
			Category:       stringField(hit.Payload, "category"),
			JudgeMetaScore: int(intField(hit.Payload, "meta_score")),
			PrimaryGap:     doubleField(hit.Payload, "primary_gap"),
			Feedback:       stringField(hit.Payload, "feedback"),
			MistakePattern: stringField(hit.Payload, "mistake_pattern"),
			Timestamp:      intField(hit.Payload, "timestamp"),
		})
	}
	return results, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// evaluationUUID derives a deterministic UUID from the evaluation id, since
// Qdrant point ids must be UUIDs or positive integers.
func evaluationUUID(evaluationID string) string {
	if _, err := uuid.Parse(evaluationID); err == nil {
		return evaluationID
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(evaluationID)).String()
}

func stringField(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func intField(payload map[string]*qdrant.Value, key string) int64 {
	if v, ok := payload[key]; ok {
		return v.GetIntegerValue()
	}
	return 0
}

func doubleField(payload map[string]*qdrant.Value, key string) float64 {
	if v, ok := payload[key]; ok {
		return v.GetDoubleValue()
	}
	return 0
}
