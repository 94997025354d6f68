package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/chessmate/chessmate/internal/domain"
)

// QdrantStore implements Store against a single Qdrant collection over
// the official gRPC client.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// QdrantConfig configures the connection to a Qdrant instance.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &QdrantStore{client: client, collection: cfg.Collection}, nil
}

// EnsureCollection creates the collection if it does not already exist,
// sized for the embedding model's output dimensionality.
func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (s *QdrantStore) Search(ctx context.Context, embedding []float32, limit int) ([]domain.VectorHit, error) {
	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	hits := make([]domain.VectorHit, 0, len(res))
	for _, point := range res {
		hit := domain.VectorHit{Score: float64(point.GetScore())}
		payload := point.GetPayload()
		if v, ok := payload["game_id"]; ok {
			hit.GameID = v.GetIntegerValue()
		}
		hit.Phases = payloadStrings(payload, "phases")
		hit.Themes = payloadStrings(payload, "themes")
		hit.Keywords = payloadStrings(payload, "keywords")
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	pbPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload := map[string]any{
			"game_id": p.GameID,
			"ply":     p.Ply,
			"white":   p.White,
			"black":   p.Black,
			"phases":  p.Phases,
			"themes":  p.Themes,
		}
		if p.Opening != nil {
			payload["opening_slug"] = *p.Opening
		}
		if p.ECOCode != nil {
			payload["eco_code"] = *p.ECOCode
		}
		pbPoints = append(pbPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         pbPoints,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

func (s *QdrantStore) HealthCheck(ctx context.Context) error {
	_, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

func payloadStrings(payload map[string]*qdrant.Value, key string) []string {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		out = append(out, item.GetStringValue())
	}
	return out
}
