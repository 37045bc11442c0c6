package channel

import (
	"context"

	"go-avatar/internal/state"
)

// FaceAdapter drives the facial expression: an expression label plus a
// blend weight the client morphs towards.
type FaceAdapter struct {
	sink Sink
}

// NewFaceAdapter creates the facial expression adapter
func NewFaceAdapter(sink Sink) *FaceAdapter {
	return &FaceAdapter{sink: sink}
}

func (a *FaceAdapter) Name() string { return "face" }

// FaceExpression is the face channel payload.
type FaceExpression struct {
	Expression string  `json:"expression"`
	Blend      float64 `json:"blend"`
	EyesOpen   float64 `json:"eyes_open"`
}

// Apply emits the expression targets for a snapshot. A newer snapshot
// simply issues new targets; mid-morph supersession is expected.
func (a *FaceAdapter) Apply(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	eyes := 1.0
	if snap.Emotion == state.EmotionTired {
		eyes = 0.4 + 0.3*(1.0-snap.Intensity)
	}
	a.sink.Publish(Event{
		Channel: a.Name(),
		Type:    "expression",
		Payload: FaceExpression{
			Expression: string(snap.Emotion),
			Blend:      snap.Intensity,
			EyesOpen:   eyes,
		},
		Version: snap.Version,
		At:      snap.At,
	})
	return nil
}
