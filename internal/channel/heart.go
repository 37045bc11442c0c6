package channel

import (
	"context"

	"go-avatar/internal/state"
)

// HeartAdapter drives the heart/emotion indicator: a color and a pulse
// rate derived from emotion and intensity.
type HeartAdapter struct {
	sink Sink
}

// NewHeartAdapter creates the heart indicator adapter
func NewHeartAdapter(sink Sink) *HeartAdapter {
	return &HeartAdapter{sink: sink}
}

func (a *HeartAdapter) Name() string { return "heart" }

var heartColors = map[state.Emotion]string{
	state.EmotionNeutral:   "#9aa5b1",
	state.EmotionHappy:     "#f7b731",
	state.EmotionSad:       "#4b7bec",
	state.EmotionAngry:     "#eb3b5a",
	state.EmotionSurprised: "#f368e0",
	state.EmotionCurious:   "#26de81",
	state.EmotionTired:     "#778ca3",
}

// HeartIndicator is the heart channel payload.
type HeartIndicator struct {
	Color string  `json:"color"`
	BPM   int     `json:"bpm"`
	Glow  float64 `json:"glow"`
}

// Apply emits the indicator for a snapshot.
func (a *HeartAdapter) Apply(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	color, ok := heartColors[snap.Emotion]
	if !ok {
		color = heartColors[state.EmotionNeutral]
	}
	a.sink.Publish(Event{
		Channel: a.Name(),
		Type:    "indicator",
		Payload: HeartIndicator{
			Color: color,
			// Resting 56 bpm up to 128 at full intensity.
			BPM:  56 + int(snap.Intensity*72),
			Glow: snap.Intensity,
		},
		Version: snap.Version,
		At:      snap.At,
	})
	return nil
}
