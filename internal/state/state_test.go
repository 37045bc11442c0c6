package state

import (
	"context"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestValidateEmotion(t *testing.T) {
	valid := []string{"neutral", "happy", "sad", "angry", "surprised", "curious", "tired"}
	for _, label := range valid {
		if err := ValidateEmotion(label); err != nil {
			t.Errorf("expected %q to be valid: %v", label, err)
		}
	}
	invalid := []string{"", "ecstatic", "HAPPY", "fly"}
	for _, label := range invalid {
		if err := ValidateEmotion(label); err == nil {
			t.Errorf("expected %q to be rejected", label)
		}
	}
}

func TestClampIntensity(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0.0},
		{0.0, 0.0},
		{0.42, 0.42},
		{1.0, 1.0},
		{3.7, 1.0},
	}
	for _, c := range cases {
		if got := ClampIntensity(c.in); got != c.want {
			t.Errorf("ClampIntensity(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestStore_Defaults(t *testing.T) {
	s := NewStore(EmotionNeutral, 0.5)
	snap := s.Snapshot()
	if snap.Emotion != EmotionNeutral || snap.Intensity != 0.5 || snap.TaskFocus != TaskFocusIdle {
		t.Errorf("unexpected initial state: %+v", snap.ExpressiveState)
	}
	if snap.Version != 0 {
		t.Errorf("expected version 0 before first write, got %d", snap.Version)
	}
}

func TestStore_SetBumpsVersionAndClamps(t *testing.T) {
	s := NewStore(EmotionNeutral, 0.5)
	snap := s.Set(ExpressiveState{Emotion: EmotionHappy, Intensity: 2.0, TaskFocus: "explain"})
	if snap.Version != 1 {
		t.Errorf("expected version 1, got %d", snap.Version)
	}
	if snap.Intensity != 1.0 {
		t.Errorf("expected clamped intensity 1.0, got %v", snap.Intensity)
	}

	// An identical write still bumps the version.
	snap2 := s.Set(snap.ExpressiveState)
	if snap2.Version != 2 {
		t.Errorf("expected version 2 after re-write, got %d", snap2.Version)
	}
	if snap2.ExpressiveState != snap.ExpressiveState {
		t.Errorf("re-write changed state: %+v vs %+v", snap2.ExpressiveState, snap.ExpressiveState)
	}
}

func TestStore_UpdateConcurrentDisjointFields(t *testing.T) {
	s := NewStore(EmotionNeutral, 0.5)
	const rounds = 100

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			s.Update(func(cur ExpressiveState) ExpressiveState {
				cur.Emotion = EmotionHappy
				return cur
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			s.Update(func(cur ExpressiveState) ExpressiveState {
				cur.Intensity = 0.9
				return cur
			})
		}
	}()
	wg.Wait()

	snap := s.Snapshot()
	if snap.Emotion != EmotionHappy {
		t.Errorf("emotion write was lost, got %q", snap.Emotion)
	}
	if snap.Intensity != 0.9 {
		t.Errorf("intensity write was lost, got %v", snap.Intensity)
	}
	if snap.Version != 2*rounds {
		t.Errorf("expected version %d, got %d", 2*rounds, snap.Version)
	}
}

func setupStateDB(t *testing.T) *gorm.DB {
	dbConn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := dbConn.AutoMigrate(&StateRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return dbConn
}

func TestManager_LoadCreatesSingleton(t *testing.T) {
	dbConn := setupStateDB(t)
	m := NewManager(dbConn)
	defaults := ExpressiveState{Emotion: EmotionNeutral, Intensity: 0.5, TaskFocus: TaskFocusIdle}

	st, err := m.Load(context.Background(), defaults)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if st != defaults {
		t.Errorf("expected defaults on first load, got %+v", st)
	}

	var count int64
	dbConn.Model(&StateRecord{}).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one state row, got %d", count)
	}
}

func TestManager_SaveRoundTrip(t *testing.T) {
	dbConn := setupStateDB(t)
	m := NewManager(dbConn)
	defaults := ExpressiveState{Emotion: EmotionNeutral, Intensity: 0.5, TaskFocus: TaskFocusIdle}
	if _, err := m.Load(context.Background(), defaults); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	snap := Snapshot{
		ExpressiveState: ExpressiveState{Emotion: EmotionHappy, Intensity: 0.8, TaskFocus: "explain"},
		Version:         3,
	}
	if err := m.Save(context.Background(), snap, []byte(`{"palette":"warm"}`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	st, err := m.Load(context.Background(), defaults)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if st.Emotion != EmotionHappy || st.Intensity != 0.8 || st.TaskFocus != "explain" {
		t.Errorf("unexpected reloaded state: %+v", st)
	}
}

func TestManager_SaveIgnoresStaleVersion(t *testing.T) {
	dbConn := setupStateDB(t)
	m := NewManager(dbConn)
	defaults := ExpressiveState{Emotion: EmotionNeutral, Intensity: 0.5, TaskFocus: TaskFocusIdle}
	if _, err := m.Load(context.Background(), defaults); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	newer := Snapshot{
		ExpressiveState: ExpressiveState{Emotion: EmotionHappy, Intensity: 0.8, TaskFocus: "explain"},
		Version:         5,
	}
	if err := m.Save(context.Background(), newer, nil); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	// A save that lost the race carries an older version; the row keeps
	// the newer values.
	stale := Snapshot{
		ExpressiveState: ExpressiveState{Emotion: EmotionSad, Intensity: 0.2, TaskFocus: "idle"},
		Version:         3,
	}
	if err := m.Save(context.Background(), stale, nil); err != nil {
		t.Fatalf("save stale: %v", err)
	}

	var record StateRecord
	if err := dbConn.First(&record, 1).Error; err != nil {
		t.Fatalf("read row: %v", err)
	}
	if record.Emotion != string(EmotionHappy) || record.Version != 5 {
		t.Errorf("stale save overwrote newer state: %+v", record)
	}
}

func TestManager_LoadRejectsCorruptEmotion(t *testing.T) {
	dbConn := setupStateDB(t)
	record := StateRecord{ID: 1, Emotion: "glorp", Intensity: 0.4, TaskFocus: "idle"}
	if err := dbConn.Create(&record).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	m := NewManager(dbConn)
	defaults := ExpressiveState{Emotion: EmotionNeutral, Intensity: 0.5, TaskFocus: TaskFocusIdle}
	st, err := m.Load(context.Background(), defaults)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if st.Emotion != EmotionNeutral {
		t.Errorf("corrupt emotion should fall back to default, got %q", st.Emotion)
	}
}
