package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go-avatar/internal/state"
)

// Snapshot is the normalized instruction handed to every adapter of one
// dispatch cycle. All adapters of a cycle see the same snapshot.
type Snapshot struct {
	state.Snapshot
	StyleContext json.RawMessage `json:"style_context,omitempty"`
}

// Adapter renders a snapshot on one output modality. Adapters run at
// their own pace, may be superseded mid-animation by a newer version,
// and never write back into state. Apply reports failures as errors,
// never as panics.
type Adapter interface {
	Name() string
	Apply(ctx context.Context, snap Snapshot) error
}

// Error is a per-channel failure. It never blocks sibling channels or
// future updates.
type Error struct {
	Channel string `json:"channel"`
	Err     error  `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("channel %s: %v", e.Channel, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps an adapter failure.
func NewError(channel string, err error) *Error {
	return &Error{Channel: channel, Err: err, Message: err.Error()}
}

// Event is what adapters emit towards the rendering client.
type Event struct {
	Channel string      `json:"channel"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Version uint64      `json:"version"`
	At      time.Time   `json:"at"`
}

// Sink receives adapter events. Publish must not block the adapter.
type Sink interface {
	Publish(evt Event)
}

// LogSink writes events to the process log. Used as a fallback when no
// client is connected and in tests.
type LogSink struct{}

func (LogSink) Publish(evt Event) {
	log.Printf("[Channel][%s] v%d %s: %+v", evt.Channel, evt.Version, evt.Type, evt.Payload)
}
