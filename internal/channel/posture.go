package channel

import (
	"context"

	"go-avatar/internal/state"
)

// PostureAdapter drives body posture and one-shot gestures.
type PostureAdapter struct {
	sink Sink
}

// NewPostureAdapter creates the posture/gesture adapter
func NewPostureAdapter(sink Sink) *PostureAdapter {
	return &PostureAdapter{sink: sink}
}

func (a *PostureAdapter) Name() string { return "posture" }

var postures = map[state.Emotion]string{
	state.EmotionNeutral:   "rest",
	state.EmotionHappy:     "open",
	state.EmotionSad:       "slumped",
	state.EmotionAngry:     "tense",
	state.EmotionSurprised: "alert",
	state.EmotionCurious:   "lean-in",
	state.EmotionTired:     "drooped",
}

// Posture is the posture channel payload.
type Posture struct {
	Pose      string  `json:"pose"`
	Energy    float64 `json:"energy"`
	TaskFocus string  `json:"task_focus"`
}

// Apply emits the posture targets for a snapshot.
func (a *PostureAdapter) Apply(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pose, ok := postures[snap.Emotion]
	if !ok {
		pose = postures[state.EmotionNeutral]
	}
	a.sink.Publish(Event{
		Channel: a.Name(),
		Type:    "posture",
		Payload: Posture{
			Pose:      pose,
			Energy:    snap.Intensity,
			TaskFocus: snap.TaskFocus,
		},
		Version: snap.Version,
		At:      snap.At,
	})
	return nil
}

// Gesture is the one-shot gesture payload.
type Gesture struct {
	Name   string  `json:"name"`
	Energy float64 `json:"energy"`
}

// PerformGesture plays a named gesture once. One-shot action, not
// persistent state; the current snapshot only scales its energy.
func (a *PostureAdapter) PerformGesture(ctx context.Context, snap Snapshot, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.sink.Publish(Event{
		Channel: a.Name(),
		Type:    "gesture",
		Payload: Gesture{
			Name:   name,
			Energy: snap.Intensity,
		},
		Version: snap.Version,
		At:      snap.At,
	})
	return nil
}
