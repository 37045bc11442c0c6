package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMemoryDB(t *testing.T) *gorm.DB {
	dbConn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := dbConn.AutoMigrate(&Record{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return dbConn
}

func TestStore_RememberFillsIdentityFields(t *testing.T) {
	dbConn := setupMemoryDB(t)
	s := NewStore(dbConn, nil, nil)

	record := &Record{
		Type:      RecordStateChange,
		Emotion:   "happy",
		Intensity: 0.8,
		TaskFocus: "explain",
	}
	if err := s.Remember(context.Background(), record); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if record.ID == "" {
		t.Errorf("expected generated id")
	}
	if record.Timestamp.IsZero() {
		t.Errorf("expected generated timestamp")
	}

	var stored Record
	if err := dbConn.First(&stored, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if stored.Emotion != "happy" || stored.Intensity != 0.8 || stored.Type != RecordStateChange {
		t.Errorf("unexpected stored record: %+v", stored)
	}
}

func TestStore_RememberIsAppendOnly(t *testing.T) {
	dbConn := setupMemoryDB(t)
	s := NewStore(dbConn, nil, nil)

	for i := 0; i < 3; i++ {
		record := &Record{Type: RecordStateChange, Emotion: "neutral", Intensity: 0.5}
		if err := s.Remember(context.Background(), record); err != nil {
			t.Fatalf("remember %d: %v", i, err)
		}
	}
	var count int64
	dbConn.Model(&Record{}).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 records, got %d", count)
	}
}

func TestPruner_PruneOnce(t *testing.T) {
	dbConn := setupMemoryDB(t)

	old := Record{ID: "old", Type: RecordStateChange, Timestamp: time.Now().AddDate(0, 0, -100)}
	fresh := Record{ID: "fresh", Type: RecordStateChange, Timestamp: time.Now()}
	if err := dbConn.Create(&old).Error; err != nil {
		t.Fatalf("seed old: %v", err)
	}
	if err := dbConn.Create(&fresh).Error; err != nil {
		t.Fatalf("seed fresh: %v", err)
	}

	p := NewPruner(dbConn, 90, 24)
	n, err := p.PruneOnce(context.Background())
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned record, got %d", n)
	}

	var count int64
	dbConn.Model(&Record{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 surviving record, got %d", count)
	}
	var survivor Record
	dbConn.First(&survivor)
	if survivor.ID != "fresh" {
		t.Errorf("wrong record pruned: %+v", survivor)
	}
}

func TestEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req["input"] == "" {
			t.Errorf("missing input field")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer srv.Close()

	e := NewEmbedder(srv.URL)
	vec, err := e.Embed(context.Background(), "happy at 0.8 while explain")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("unexpected embedding: %v", vec)
	}
}

func TestEmbedder_ErrorStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewEmbedder(srv.URL)
	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Errorf("expected error on non-200 status")
	}
}
