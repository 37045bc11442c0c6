package channel

import (
	"context"

	"go-avatar/internal/state"
)

// SpeechAdapter drives speech output. Prosody is never pushed on state
// updates; it is read lazily from the store at speech time, so an
// utterance always carries the prosody of the state it is spoken in.
type SpeechAdapter struct {
	sink  Sink
	store *state.Store
}

// NewSpeechAdapter creates the speech adapter
func NewSpeechAdapter(sink Sink, store *state.Store) *SpeechAdapter {
	return &SpeechAdapter{sink: sink, store: store}
}

func (a *SpeechAdapter) Name() string { return "speech" }

// Utterance is the speech channel payload.
type Utterance struct {
	Text   string  `json:"text"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// Prosody derives the speech parameters for a state.
func Prosody(st state.ExpressiveState) (rate, pitch, volume float64) {
	rate = 1.0
	pitch = 1.0
	volume = 0.6 + 0.4*st.Intensity

	switch st.Emotion {
	case state.EmotionHappy, state.EmotionSurprised:
		rate = 1.0 + 0.3*st.Intensity
		pitch = 1.0 + 0.2*st.Intensity
	case state.EmotionSad, state.EmotionTired:
		rate = 1.0 - 0.3*st.Intensity
		pitch = 1.0 - 0.15*st.Intensity
	case state.EmotionAngry:
		rate = 1.0 + 0.15*st.Intensity
		pitch = 1.0 - 0.1*st.Intensity
		volume = 0.7 + 0.3*st.Intensity
	case state.EmotionCurious:
		pitch = 1.0 + 0.1*st.Intensity
	}
	return rate, pitch, volume
}

// Say speaks a text with prosody read from the current snapshot.
// One-shot action, not persistent state.
func (a *SpeechAdapter) Say(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := a.store.Snapshot()
	rate, pitch, volume := Prosody(snap.ExpressiveState)
	a.sink.Publish(Event{
		Channel: a.Name(),
		Type:    "utterance",
		Payload: Utterance{
			Text:   text,
			Rate:   rate,
			Pitch:  pitch,
			Volume: volume,
		},
		Version: snap.Version,
		At:      snap.At,
	})
	return nil
}
