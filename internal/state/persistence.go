package state

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StateRecord is the persistent singleton row backing the expressive state
// across restarts.
type StateRecord struct {
	ID           int            `gorm:"primaryKey" json:"id"`
	Emotion      string         `gorm:"type:varchar(20);not null" json:"emotion"`
	Intensity    float64        `gorm:"not null" json:"intensity"`
	TaskFocus    string         `gorm:"type:varchar(120);not null" json:"task_focus"`
	Version      uint64         `gorm:"not null;default:0" json:"version"`
	StyleContext datatypes.JSON `gorm:"type:jsonb" json:"style_context"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (StateRecord) TableName() string {
	return "avatar_state"
}

// Manager handles loading and saving the expressive state singleton.
type Manager struct {
	db *gorm.DB
}

// NewManager creates a new persistence manager
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Load retrieves the persisted state, creating the singleton row with the
// given defaults when missing.
func (m *Manager) Load(ctx context.Context, defaults ExpressiveState) (ExpressiveState, error) {
	record := StateRecord{
		ID:        1,
		Emotion:   string(defaults.Emotion),
		Intensity: defaults.Intensity,
		TaskFocus: defaults.TaskFocus,
	}
	if err := m.db.WithContext(ctx).Where(StateRecord{ID: 1}).FirstOrCreate(&record).Error; err != nil {
		return defaults, fmt.Errorf("failed to load avatar state: %w", err)
	}

	st := ExpressiveState{
		Emotion:   Emotion(record.Emotion),
		Intensity: ClampIntensity(record.Intensity),
		TaskFocus: record.TaskFocus,
	}
	// A corrupted row never poisons the session; fall back to defaults.
	if err := ValidateEmotion(record.Emotion); err != nil {
		st.Emotion = defaults.Emotion
	}
	if st.TaskFocus == "" {
		st.TaskFocus = TaskFocusIdle
	}
	return st, nil
}

// Save persists a snapshot into the singleton row. A snapshot older
// than the persisted version is a no-op, so overlapping saves cannot
// roll the row back.
func (m *Manager) Save(ctx context.Context, snap Snapshot, styleContext []byte) error {
	updates := map[string]interface{}{
		"emotion":    string(snap.Emotion),
		"intensity":  snap.Intensity,
		"task_focus": snap.TaskFocus,
		"version":    snap.Version,
		"updated_at": time.Now(),
	}
	if len(styleContext) > 0 {
		updates["style_context"] = datatypes.JSON(styleContext)
	}
	if err := m.db.WithContext(ctx).Model(&StateRecord{}).Where("id = ? AND version <= ?", 1, snap.Version).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to save avatar state: %w", err)
	}
	return nil
}
