package memory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sink is the append-only persistence collaborator the orchestration
// core writes into.
type Sink interface {
	Remember(ctx context.Context, record *Record) error
}

// Store persists records into the relational log and, when configured,
// mirrors them into the episodic vector store in the background.
type Store struct {
	db       *gorm.DB
	episodic *EpisodicStore
	embedder *Embedder
}

// NewStore creates a memory store. episodic and embedder may be nil.
func NewStore(db *gorm.DB, episodic *EpisodicStore, embedder *Embedder) *Store {
	return &Store{db: db, episodic: episodic, embedder: embedder}
}

// Remember appends one record. The relational write is authoritative;
// the episodic mirror is best-effort and never fails the caller.
func (s *Store) Remember(ctx context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to append memory record: %w", err)
	}

	if s.episodic != nil && s.embedder != nil {
		go s.mirrorEpisodic(*record)
	}
	return nil
}

func (s *Store) mirrorEpisodic(record Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	text := fmt.Sprintf("%s: %s at %.2f while %s", record.Type, record.Emotion, record.Intensity, record.TaskFocus)
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("[Memory] episodic embed skipped: %v", err)
		return
	}
	if err := s.episodic.Store(ctx, &record, vector); err != nil {
		log.Printf("[Memory] episodic mirror skipped: %v", err)
	}
}
