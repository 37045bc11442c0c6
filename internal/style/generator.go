package style

import (
	"encoding/json"
	"fmt"

	"go-avatar/internal/state"
)

// Generator produces a style context descriptor for a given expressive
// state. The orchestrator treats the descriptor as a black box.
type Generator interface {
	GenerateStyleContext(st state.ExpressiveState) ([]byte, error)
}

// Descriptor is the default style context shape: a render hint the
// client turns into CSS/shader parameters.
type Descriptor struct {
	Palette    string  `json:"palette"`
	Saturation float64 `json:"saturation"`
	Tempo      string  `json:"tempo"`
	Prompt     string  `json:"prompt"`
}

// DescriptorGenerator composes a descriptor from the state alone, with
// no external calls. Pure: the same state always yields the same bytes.
type DescriptorGenerator struct{}

// NewDescriptorGenerator creates the default generator
func NewDescriptorGenerator() *DescriptorGenerator {
	return &DescriptorGenerator{}
}

var palettes = map[state.Emotion]string{
	state.EmotionNeutral:   "slate",
	state.EmotionHappy:     "warm",
	state.EmotionSad:       "cool",
	state.EmotionAngry:     "ember",
	state.EmotionSurprised: "bright",
	state.EmotionCurious:   "teal",
	state.EmotionTired:     "dusk",
}

// GenerateStyleContext builds the descriptor for a state snapshot.
func (g *DescriptorGenerator) GenerateStyleContext(st state.ExpressiveState) ([]byte, error) {
	palette, ok := palettes[st.Emotion]
	if !ok {
		palette = "slate"
	}
	tempo := "steady"
	if st.Intensity >= 0.75 {
		tempo = "energetic"
	} else if st.Intensity <= 0.25 {
		tempo = "calm"
	}
	d := Descriptor{
		Palette:    palette,
		Saturation: 0.3 + 0.7*st.Intensity,
		Tempo:      tempo,
		Prompt: fmt.Sprintf("a %s mood at %.0f%% intensity while %s",
			st.Emotion, st.Intensity*100, st.TaskFocus),
	}
	return json.Marshal(d)
}
