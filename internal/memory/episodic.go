package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// EpisodicStore mirrors memory records into a vector collection so the
// backend can later recall expressive episodes by similarity.
type EpisodicStore struct {
	client         *qdrant.Client
	collectionName string
}

// NewEpisodicStore creates the episodic store and ensures its collection
func NewEpisodicStore(qdrantURL, collectionName, apiKey string) (*EpisodicStore, error) {
	// Strip scheme and port; the gRPC port is fixed.
	qdrantURL = strings.TrimPrefix(qdrantURL, "http://")
	qdrantURL = strings.TrimPrefix(qdrantURL, "https://")
	host := qdrantURL
	if idx := strings.Index(qdrantURL, ":"); idx != -1 {
		host = qdrantURL[:idx]
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   6334,
		APIKey: apiKey,
		UseTLS: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	s := &EpisodicStore{
		client:         client,
		collectionName: collectionName,
	}
	if err := s.ensureCollection(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	return s, nil
}

func (s *EpisodicStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	// 384 dimensions (all-MiniLM-L6-v2)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     384,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	indexes := []struct {
		field string
		typ   qdrant.PayloadSchemaType
	}{
		{"type", qdrant.PayloadSchemaType_Keyword},
		{"emotion", qdrant.PayloadSchemaType_Keyword},
		{"task_focus", qdrant.PayloadSchemaType_Keyword},
		{"timestamp", qdrant.PayloadSchemaType_Integer},
	}
	for _, idx := range indexes {
		fieldType := qdrant.FieldType(idx.typ)
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collectionName,
			FieldName:      idx.field,
			FieldType:      &fieldType,
			Wait:           boolPtr(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for %s: %w", idx.field, err)
		}
	}
	return nil
}

// Store upserts one record with its embedding.
func (s *EpisodicStore) Store(ctx context.Context, record *Record, vector []float32) error {
	payload := map[string]*qdrant.Value{
		"type":       qdrant.NewValueString(string(record.Type)),
		"emotion":    qdrant.NewValueString(record.Emotion),
		"intensity":  qdrant.NewValueDouble(record.Intensity),
		"task_focus": qdrant.NewValueString(record.TaskFocus),
		"timestamp":  qdrant.NewValueInt(record.Timestamp.Unix()),
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(record.ID),
				Vectors: qdrant.NewVectors(vector...),
				Payload: payload,
			},
		},
		Wait: boolPtr(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert episodic point: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
