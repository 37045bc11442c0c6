package memory

import (
	"time"

	"gorm.io/datatypes"
)

// RecordType categorizes what a memory record captures.
type RecordType string

const (
	RecordStateChange RecordType = "state_change"
	RecordUtterance   RecordType = "utterance"
	RecordGoalEvent   RecordType = "goal_event"
)

// Record is one append-only memory entry. State-change records carry at
// least type, emotion, intensity and timestamp; read-back queries are
// not part of this layer.
type Record struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Type      RecordType     `gorm:"type:varchar(24);not null;index" json:"type"`
	Emotion   string         `gorm:"type:varchar(20)" json:"emotion"`
	Intensity float64        `json:"intensity"`
	TaskFocus string         `gorm:"type:varchar(120)" json:"task_focus"`
	Detail    datatypes.JSON `gorm:"type:jsonb" json:"detail,omitempty"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
}

// TableName specifies the table name for GORM
func (Record) TableName() string {
	return "avatar_memories"
}
