package channel

import (
	"context"
	"encoding/json"
	"fmt"

	"go-avatar/internal/style"
)

// StyleAdapter drives the visual style channel. It asks the style
// generator for a context descriptor and forwards it as-is; the
// descriptor is a black box at this layer.
type StyleAdapter struct {
	sink      Sink
	generator style.Generator
}

// NewStyleAdapter creates the style adapter
func NewStyleAdapter(sink Sink, generator style.Generator) *StyleAdapter {
	return &StyleAdapter{sink: sink, generator: generator}
}

func (a *StyleAdapter) Name() string { return "style" }

// Apply generates and emits the style context for a snapshot. An
// explicit StyleContext in the snapshot short-circuits generation.
func (a *StyleAdapter) Apply(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	descriptor := []byte(snap.StyleContext)
	if len(descriptor) == 0 {
		raw, err := a.generator.GenerateStyleContext(snap.ExpressiveState)
		if err != nil {
			return fmt.Errorf("style generation failed: %w", err)
		}
		descriptor = raw
	}

	a.sink.Publish(Event{
		Channel: a.Name(),
		Type:    "style",
		Payload: json.RawMessage(descriptor),
		Version: snap.Version,
		At:      snap.At,
	})
	return nil
}

// ApplyDescriptor emits an externally supplied descriptor as a one-shot,
// bypassing the generator. Used for setStyle instructions.
func (a *StyleAdapter) ApplyDescriptor(ctx context.Context, snap Snapshot, descriptor json.RawMessage) error {
	snap.StyleContext = descriptor
	return a.Apply(ctx, snap)
}
