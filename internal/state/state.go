package state

import (
	"fmt"
	"time"
)

// Emotion is the enumerated affect label of the agent.
type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionCurious   Emotion = "curious"
	EmotionTired     Emotion = "tired"
)

// TaskFocusIdle is the focus label when no goal is active.
const TaskFocusIdle = "idle"

// ValidateEmotion checks if an emotion label is part of the fixed set.
// Unknown labels are rejected, never silently coerced.
func ValidateEmotion(label string) error {
	switch Emotion(label) {
	case EmotionNeutral, EmotionHappy, EmotionSad, EmotionAngry,
		EmotionSurprised, EmotionCurious, EmotionTired:
		return nil
	default:
		return fmt.Errorf("unknown emotion label: %q", label)
	}
}

// ClampIntensity forces an intensity value into [0.0, 1.0].
// Out-of-range values are clamped, never propagated to channels.
func ClampIntensity(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// ExpressiveState is the canonical affective/task state of the agent.
// There is exactly one at any instant; it is mutated only through the
// orchestrator's single update entry point.
type ExpressiveState struct {
	Emotion   Emotion `json:"emotion"`
	Intensity float64 `json:"intensity"`
	TaskFocus string  `json:"task_focus"`
}

// Partial is a subset of ExpressiveState fields for an update request.
// Nil fields retain their prior value.
type Partial struct {
	Emotion   *string  `json:"emotion,omitempty"`
	Intensity *float64 `json:"intensity,omitempty"`
	TaskFocus *string  `json:"task_focus,omitempty"`
}

// Snapshot is a versioned copy of the state handed to channels.
// All channels of one dispatch cycle observe the same snapshot.
type Snapshot struct {
	ExpressiveState
	Version uint64    `json:"version"`
	At      time.Time `json:"at"`
}
